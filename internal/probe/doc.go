// Package probe publishes registry readiness over the standard gRPC health
// protocol (grpc.health.v1). Both the overall service ("") and
// ServiceName report SERVING once the registry holds a vehicle.
package probe
