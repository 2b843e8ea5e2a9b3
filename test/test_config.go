// Package test holds small helpers shared by driver conformance tests.
package test

import (
	"fmt"
	"os"
	"sync"
)

var (
	testDatabaseUris = make(map[string]string)
	uriMutex         sync.RWMutex
)

// RegisterTestDatabaseUri registers the connection URI a driver's tests
// should run against. Typically called from a driver package's init().
func RegisterTestDatabaseUri(driverType, uri string) {
	uriMutex.Lock()
	defer uriMutex.Unlock()
	testDatabaseUris[driverType] = uri
}

// GetTestDatabaseUri returns the registered URI for a driver type.
func GetTestDatabaseUri(driverType string) string {
	uriMutex.RLock()
	defer uriMutex.RUnlock()
	uri, ok := testDatabaseUris[driverType]
	if !ok {
		panic(fmt.Sprintf("no test database URI registered for driver: %s", driverType))
	}
	return uri
}

// GetEnvOrDefault returns an environment variable's value, or a default if unset.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
