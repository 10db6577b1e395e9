// Package market implements the forecasting and insight engine for crop
// trade transactions.
//
// The engine is a pipeline of pure functions over an immutable transaction
// snapshot:
//
//	Normalize -> BuildDailySeries -> ForecastQuantity/ForecastPrice
//	                              -> AnalyzeSeasons/Crops/States/Buyers
//	                              -> BuildReport
//
// Normalization maps heterogeneous raw records (marketplace orders, sold
// lots, processing batches) onto one canonical Transaction schema, derives
// season and payment status, and deduplicates by transaction id. The series
// builder produces gap-free daily series: quantity, value and count are
// zero-filled on quiet days while price is forward-filled, because a missing
// price means "no trade", not "price fell to zero".
//
// Forecasting fits a fixed-order ARIMA per series: (5,1,2) for quantity,
// (3,1,2) for price and per-crop series. Estimation is Hannan-Rissanen
// two-stage least squares on the differenced series. Degenerate input
// (constant series, fewer than 3 usable points) and numerical fit failures
// fall back to repeating the series mean with zero-width intervals. The
// fallback is silent apart from the ForecastResult.UsedFallback diagnostic:
// the engine always answers with a well-formed result once the minimum
// observation threshold is met.
//
// BuildReport fans the analyzers and per-crop forecasts out concurrently
// (they share no mutable state) and assembles a role-scoped report. A failed
// sub-result degrades in place to a MONITOR placeholder; only caller
// contract violations (unknown role, non-positive horizon) and context
// cancellation fail the build.
package market
