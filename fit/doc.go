// Package fit provides bounded nonlinear least-squares fitting of parametric
// models and leave-one-out cross-validation for choosing the data window a
// model is fitted over.
//
// Fits use a Levenberg-Marquardt iteration with an explicit iteration budget.
// A fit that does not converge within the budget fails with ErrFitDivergence,
// which cross-validation treats as a recoverable, penalised outcome.
//
// # Usage
//
//	windows := fit.Windows(2.0, fit.Arange(40, 130, 10))
//	sel, err := fit.SelectBestWindow(ctx, lags, corr, windows, fit.StretchedExp, p0)
//	if err != nil {
//	    return err
//	}
//	g0 := fit.StretchedExp.Eval(0, sel.Params)
package fit
