package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Well-known test vector: the key for 0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf.
const (
	testKeyHex  = "0000000000000000000000000000000000000000000000000000000000000001"
	testKeyAddr = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+testKeyHex, "correct horse")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := DecryptKey(blob, "correct horse")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != testKeyHex {
		t.Errorf("round trip: got %s", got)
	}

	if _, err := DecryptKey(blob, "wrong password"); err == nil {
		t.Error("wrong password must fail")
	}
}

func TestEncryptKeyValidation(t *testing.T) {
	if _, err := EncryptKey(testKeyHex, ""); err == nil {
		t.Error("empty password must fail")
	}
	if _, err := EncryptKey("deadbeef", "pw"); err == nil {
		t.Error("short key must fail")
	}
	if _, err := EncryptKey("zzzz", "pw"); err == nil {
		t.Error("non-hex key must fail")
	}
}

func TestAddressFromKey(t *testing.T) {
	addr, err := AddressFromKey(testKeyHex)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if addr != testKeyAddr {
		t.Errorf("address: got %s want %s", addr, testKeyAddr)
	}
}

func TestLoadAddress(t *testing.T) {
	t.Run("explicit address wins", func(t *testing.T) {
		addr, err := LoadAddress(KeyConfig{Address: "0xabc"})
		if err != nil || addr != "0xabc" {
			t.Fatalf("got %s, %v", addr, err)
		}
	})

	t.Run("encrypted key file", func(t *testing.T) {
		blob, err := EncryptKey(testKeyHex, "pw")
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		path := filepath.Join(t.TempDir(), "key.json")
		if err := os.WriteFile(path, blob, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}

		addr, err := LoadAddress(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if addr != testKeyAddr {
			t.Errorf("address: got %s", addr)
		}
	})

	t.Run("no source", func(t *testing.T) {
		if _, err := LoadAddress(KeyConfig{}); err == nil {
			t.Error("empty config must fail")
		}
	})
}

func TestHMACHeadersDeterministic(t *testing.T) {
	auth := &HMACAuth{Key: "key-1", Secret: "secret-1"}

	a := auth.HeadersAt("POST", "/v1/fills", `{"pair":"x"}`, 1700000000)
	b := auth.HeadersAt("POST", "/v1/fills", `{"pair":"x"}`, 1700000000)
	if a["X-SD-SIGNATURE"] != b["X-SD-SIGNATURE"] {
		t.Error("same inputs must sign identically")
	}
	if a["X-SD-TIMESTAMP"] != "1700000000" {
		t.Errorf("timestamp: %s", a["X-SD-TIMESTAMP"])
	}

	c := auth.HeadersAt("POST", "/v1/fills", `{"pair":"y"}`, 1700000000)
	if a["X-SD-SIGNATURE"] == c["X-SD-SIGNATURE"] {
		t.Error("different bodies must sign differently")
	}
}

func TestHMACAuthStringRedacts(t *testing.T) {
	auth := &HMACAuth{Key: "key-123456", Secret: "super-secret"}
	s := auth.String()
	if strings.Contains(s, "123456") || strings.Contains(s, "super-secret") {
		t.Errorf("string leaks credentials: %s", s)
	}
}
