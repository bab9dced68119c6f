package chain

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"testing"
)

func TestDecodeBundleStatus(t *testing.T) {
	cases := []struct {
		raw       string
		pending   bool
		confirmed bool
		failed    bool
		wantErr   bool
	}{
		{`100`, true, false, false, false},
		{`200`, false, true, false, false},
		{`400`, false, false, true, false},
		{`500`, false, false, true, false},
		{`"PENDING"`, true, false, false, false},
		{`"confirmed"`, false, true, false, false},
		{`"FAILED"`, false, false, true, false},
		{`"weird"`, false, false, false, true},
		{`150`, false, false, false, true},
	}

	for _, tc := range cases {
		got, err := decodeBundleStatus(json.RawMessage(tc.raw))
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tc.raw, err)
			continue
		}
		if got.Pending != tc.pending || got.Confirmed != tc.confirmed || got.Failed != tc.failed {
			t.Errorf("%s: got %+v", tc.raw, got)
		}
	}
}

func TestEncodeApprove(t *testing.T) {
	data, err := EncodeApprove("0x1dd6b1e38e52d226c335e1e250b59ed26e9df83a", big.NewInt(4000000))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// approve(address,uint256) selector.
	if hex.EncodeToString(data[:4]) != "095ea7b3" {
		t.Errorf("selector: got %x", data[:4])
	}
	if len(data) != 4+32+32 {
		t.Errorf("calldata length: got %d want 68", len(data))
	}
}
