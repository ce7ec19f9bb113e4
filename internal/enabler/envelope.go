package enabler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	gatewaySuccessCode = "100"
	cancelMarker       = "payment_cancel"
)

// ParseMessage normalizes a cross-document message payload. data may be a
// JSON string, raw bytes or an already decoded map. ok is false when the
// payload carries none of the recognized fields. A payload that cannot be
// decoded yields an Error signal.
func ParseMessage(data interface{}, channel Channel) (sig Signal, ok bool) {
	fields, err := decodeEnvelope(data)
	if err != nil {
		return Signal{
			Kind:      KindError,
			Reference: RefError,
			Channel:   channel,
			Err:       fmt.Errorf("%w: %v", ErrMalformedSignal, err),
		}, true
	}
	return classify(fields, channel)
}

// ParseReturnQuery inspects return-URL parameters. ok is false unless tid,
// status, checksum and txn_secret are all present.
func ParseReturnQuery(q url.Values) (sig Signal, ok bool) {
	for _, k := range []string{"tid", "status", "checksum", "txn_secret"} {
		if q.Get(k) == "" {
			return Signal{}, false
		}
	}
	tid := q.Get("tid")
	if q.Get("status") == gatewaySuccessCode || q.Get("status_code") == gatewaySuccessCode {
		return Signal{Kind: KindSuccess, Reference: tid, Channel: ChannelRedirect}, true
	}
	return Signal{Kind: KindFailure, Reference: tid, Channel: ChannelRedirect}, true
}

func decodeEnvelope(data interface{}) (map[string]interface{}, error) {
	switch v := data.(type) {
	case map[string]interface{}:
		return v, nil
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, nil
	case string:
		return decodeJSON([]byte(v))
	case []byte:
		return decodeJSON(v)
	case json.RawMessage:
		return decodeJSON(v)
	case nil:
		return nil, fmt.Errorf("empty payload")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return decodeJSON(raw)
}

func decodeJSON(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("payload is not an object")
	}
	return out, nil
}

// classify applies the interpretation rules in priority order.
func classify(f map[string]interface{}, channel Channel) (Signal, bool) {
	statusCode, hasCode := scalar(f["status_code"])
	status, hasStatus := scalar(f["status"])

	if (hasCode && statusCode == gatewaySuccessCode) || (hasStatus && status == gatewaySuccessCode) {
		ref := transactionID(f)
		if ref == "" {
			ref = RefSuccess
		}
		return Signal{Kind: KindSuccess, Reference: ref, Channel: channel}, true
	}

	if marker, _ := scalar(f["nnpf_postMsg"]); marker == cancelMarker {
		return Signal{Kind: KindCancelled, Reference: RefCancelled, Channel: channel}, true
	}

	if hasCode || hasStatus {
		ref, _ := scalar(f["tid"])
		if ref == "" {
			ref = RefFailed
		}
		return Signal{Kind: KindFailure, Reference: ref, Channel: channel}, true
	}

	return Signal{}, false
}

func transactionID(f map[string]interface{}) string {
	if tid, ok := scalar(f["tid"]); ok {
		return tid
	}
	if tx, ok := f["transaction"].(map[string]interface{}); ok {
		if tid, ok := scalar(tx["tid"]); ok {
			return tid
		}
	}
	return ""
}

// scalar renders a string or number field. Empty strings count as absent.
func scalar(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}
