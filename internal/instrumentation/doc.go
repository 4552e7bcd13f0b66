// Package instrumentation provides the OpenTelemetry counters, histograms and tracer
// shared by the transport negotiator and the authorization code broker.
//
// Instruments are created from the global providers by default, so they stay no-op
// until the host application installs a real MeterProvider/TracerProvider.
package instrumentation
