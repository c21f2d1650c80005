//go:build !windows

package config

func defaultBackend() string { return BackendBolt }
