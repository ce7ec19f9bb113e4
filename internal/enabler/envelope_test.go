package enabler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name   string
		data   interface{}
		ok     bool
		kind   Kind
		ref    string
		hasErr bool
	}{
		{"success string code", `{"status_code":"100","tid":"TX1"}`, true, KindSuccess, "TX1", false},
		{"success numeric status", map[string]interface{}{"status": 100.0, "tid": "TX1"}, true, KindSuccess, "TX1", false},
		{"success nested tid", `{"status":100,"transaction":{"tid":14963400086521909}}`, true, KindSuccess, "14963400086521909", false},
		{"success without tid", []byte(`{"status_code":100}`), true, KindSuccess, RefSuccess, false},
		{"cancel marker", `{"nnpf_postMsg":"payment_cancel"}`, true, KindCancelled, RefCancelled, false},
		{"success beats cancel", `{"status_code":"100","nnpf_postMsg":"payment_cancel","tid":"T"}`, true, KindSuccess, "T", false},
		{"failure with tid", map[string]string{"status_code": "90", "tid": "TX9"}, true, KindFailure, "TX9", false},
		{"failure status only", `{"status":"FAILURE"}`, true, KindFailure, RefFailed, false},
		{"malformed string", `{"status_code":`, true, KindError, RefError, true},
		{"json array", `[1,2]`, true, KindError, RefError, true},
		{"nil payload", nil, true, KindError, RefError, true},
		{"unrelated message", `{"type":"resize","height":400}`, false, 0, "", false},
		{"empty status ignored", `{"status_code":""}`, false, 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := ParseMessage(tt.data, ChannelPopupMessage)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.kind, sig.Kind)
			assert.Equal(t, tt.ref, sig.Reference)
			assert.Equal(t, ChannelPopupMessage, sig.Channel)
			if tt.hasErr {
				assert.ErrorIs(t, sig.Err, ErrMalformedSignal)
			} else {
				assert.NoError(t, sig.Err)
			}
		})
	}
}

func TestParseMessage_StructPayload(t *testing.T) {
	type payload struct {
		StatusCode string `json:"status_code"`
		TID        string `json:"tid"`
	}
	sig, ok := ParseMessage(payload{StatusCode: "100", TID: "TX7"}, ChannelFrameMessage)
	require.True(t, ok)
	assert.Equal(t, KindSuccess, sig.Kind)
	assert.Equal(t, "TX7", sig.Reference)
}

func TestParseReturnQuery(t *testing.T) {
	q := url.Values{}
	q.Set("tid", "TX2")
	q.Set("status", "100")
	q.Set("checksum", "abc")
	q.Set("txn_secret", "S")

	sig, ok := ParseReturnQuery(q)
	require.True(t, ok)
	assert.Equal(t, KindSuccess, sig.Kind)
	assert.Equal(t, "TX2", sig.Reference)
	assert.Equal(t, ChannelRedirect, sig.Channel)

	q.Set("status", "FAILURE")
	sig, ok = ParseReturnQuery(q)
	require.True(t, ok)
	assert.Equal(t, KindFailure, sig.Kind)

	q.Del("checksum")
	_, ok = ParseReturnQuery(q)
	assert.False(t, ok)
}

func TestResultOf(t *testing.T) {
	r := ResultOf(Signal{Kind: KindSuccess, Reference: "TX1"})
	assert.True(t, r.IsSuccess)
	assert.Equal(t, "TX1", r.Reference())

	r = ResultOf(Signal{Kind: KindCancelled, Reference: RefCancelled})
	assert.False(t, r.IsSuccess)
	assert.Nil(t, r.PaymentReference)

	r = ResultOf(Signal{Kind: KindTimeout})
	assert.Nil(t, r.PaymentReference)

	r = ResultOf(Signal{Kind: KindError, Reference: RefError})
	assert.False(t, r.IsSuccess)
	assert.Equal(t, RefError, r.Reference())
}
