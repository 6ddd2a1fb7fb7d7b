package usecase

// NormalizePlan is exported for testing
var NormalizePlan = normalizePlan

// TraceabilityRate is exported for testing
var TraceabilityRate = traceabilityRate

// Median is exported for testing
var Median = median
