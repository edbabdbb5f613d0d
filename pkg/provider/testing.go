package provider

import (
	"context"
	"testing"
	"time"
)

// ContractTest defines the standard test suite every provider variant must
// pass. Tests construct providers against fake backends, so the suite runs
// on any host.
type ContractTest struct {
	// CreateProvider creates a fresh provider instance to test.
	CreateProvider func(t *testing.T) Provider

	// SetupTestSecret stores a test secret and returns its key plus a
	// cleanup function. Leave nil for read-only providers without a
	// seedable fake.
	SetupTestSecret func(t *testing.T, p Provider) (key, namespace string, cleanup func())

	// Namespace used for lookups when SetupTestSecret is nil.
	Namespace string
}

// RunContractTests runs the provider contract suite against one variant.
func RunContractTests(t *testing.T, contract ContractTest) {
	t.Run("Contract", func(t *testing.T) {
		t.Run("TypeStable", func(t *testing.T) {
			testTypeStable(t, contract)
		})
		t.Run("CapabilityMarkers", func(t *testing.T) {
			testCapabilityMarkers(t, contract)
		})
		t.Run("GetMissing", func(t *testing.T) {
			testGetMissing(t, contract)
		})
		if contract.SetupTestSecret != nil {
			t.Run("GetExisting", func(t *testing.T) {
				testGetExisting(t, contract)
			})
		}
		t.Run("HealthSnapshot", func(t *testing.T) {
			testHealthSnapshot(t, contract)
		})
	})
}

func testTypeStable(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	typ := p.Type()
	if typ == "" {
		t.Error("Provider.Type() returned empty tag")
	}
	if typ != p.Type() {
		t.Errorf("Provider.Type() not consistent: %q != %q", typ, p.Type())
	}
}

func testCapabilityMarkers(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	caps := p.Capabilities()
	if caps != p.Capabilities() {
		t.Error("Provider.Capabilities() not consistent between calls")
	}

	// The markers must agree with the optional interfaces the concrete
	// type implements.
	_, isWriter := p.(Writer)
	if caps.SupportsWrite && !isWriter {
		t.Error("SupportsWrite is set but the provider does not implement Writer")
	}
	_, isLister := p.(Lister)
	if caps.SupportsList && !isLister {
		t.Error("SupportsList is set but the provider does not implement Lister")
	}
	_, isDeleter := p.(Deleter)
	if caps.SupportsDelete && !isDeleter {
		t.Error("SupportsDelete is set but the provider does not implement Deleter")
	}
}

func testGetMissing(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)
	ctx := context.Background()

	key := "contract-missing-" + time.Now().Format("20060102150405.000")
	value, err := p.Get(ctx, key, contract.Namespace)
	if err == nil {
		t.Fatalf("Provider.Get() should fail for a missing key, got value %q", value)
	}
	if !IsNotFound(err) {
		// Auth failures are acceptable for backends that need a session;
		// anything else breaks the miss-vs-error contract.
		if !IsAuth(err) && !IsUnavailable(err) {
			t.Errorf("Provider.Get() on missing key returned %T, want NotFoundError", err)
		}
	}
	if err != nil && value != "" {
		t.Error("Provider.Get() returned a value alongside an error")
	}
}

func testGetExisting(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)
	key, namespace, cleanup := contract.SetupTestSecret(t, p)
	defer cleanup()

	value, err := p.Get(context.Background(), key, namespace)
	if err != nil {
		t.Fatalf("Provider.Get() failed for seeded secret: %v", err)
	}
	if value == "" {
		t.Error("Provider.Get() returned an empty value for a seeded secret")
	}
}

func testHealthSnapshot(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)
	ctx := context.Background()

	before := time.Now()
	hc := p.Health(ctx)

	if hc.Status != StatusHealthy && hc.Status != StatusDegraded && hc.Status != StatusUnavailable {
		t.Errorf("Health() returned unknown status %q", hc.Status)
	}
	if hc.LastChecked.Before(before) {
		t.Error("Health() LastChecked precedes the call; snapshots must be fresh")
	}
	if hc.Status != StatusHealthy && hc.Help == "" {
		t.Errorf("Health() status %q without remediation text", hc.Status)
	}

	// Health must never be cached: a second check carries a new timestamp.
	hc2 := p.Health(ctx)
	if hc2.LastChecked.Before(hc.LastChecked) {
		t.Error("second Health() snapshot is older than the first")
	}
}
