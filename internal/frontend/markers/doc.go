// Package markers builds a model from marker annotations compiled into
// classes.
//
// Markers are invisible (class-retention) annotations in a configurable
// package. A redirect set is an interface marked RedirectSet whose nested
// classes carry TypeRedirect or PartialRedirect; their members carry
// FieldRedirect and MethodRedirect. A target class is marked Redirect (the
// sets it uses), TransformFromClass (whole-class source) or has methods
// marked TransformFrom. AddFieldToSets and AddMethodToSets add redirects
// to the destination member from outside a set.
package markers
