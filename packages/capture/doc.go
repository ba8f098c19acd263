// Package capture implements saveAs captures for body assertions.
//
// An expected body may contain leaves of the exact form {{saveAs:name}}.
// Such a leaf is not compared; instead the value found at the same position
// in the actual response body is recorded under name. ExtractSaveAs walks
// both trees together and returns capture-free comparison trees along with
// the captured variables, which later tests can reference as {{name}}.
package capture
