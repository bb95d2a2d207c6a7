package logging

import (
	"context"
)

const (
	RunIDKey       = "run_id"
	TCIDKey        = "tc_id"
	ServiceNameKey = "service_name"
)

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func WithTCID(ctx context.Context, tcID string) context.Context {
	return context.WithValue(ctx, TCIDKey, tcID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

func GetTCID(ctx context.Context) string {
	if tcID, ok := ctx.Value(TCIDKey).(string); ok {
		return tcID
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 6)

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, "run_id", runID)
	}

	if tcID := GetTCID(ctx); tcID != "" {
		fields = append(fields, "tc_id", tcID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
