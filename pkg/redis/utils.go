package redis

import (
	"encoding/base64"
	"hash/fnv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const (
	keyPrefix   = "ctl-toggle"
	keyControls = "controls"
	keyState    = "state"
	keyAlive    = "alive"
)

var b64enc = base64.RawURLEncoding

func controlKey(name string) string {
	h := fnv.New128a()
	_, _ = io.WriteString(h, strings.ToLower(name))

	return b64enc.EncodeToString(h.Sum(nil))
}

func stateKey(name string) string {
	return strings.Join([]string{keyPrefix, keyControls, controlKey(name), keyState}, ":")
}

func aliveKey(name string) string {
	return strings.Join([]string{keyPrefix, keyControls, controlKey(name), keyAlive}, ":")
}

func expireArg(d time.Duration) string {
	return strconv.Itoa(int(d.Seconds()))
}

func encodeState(s state) (rv string, err error) {
	var b []byte

	if b, err = cbor.Marshal(s); err != nil {
		return
	}

	rv = b64enc.EncodeToString(b)

	return rv, nil
}

func decodeState(s string) (rv state, err error) {
	var b []byte

	if b, err = b64enc.DecodeString(s); err != nil {
		return
	}

	err = cbor.Unmarshal(b, &rv)

	return rv, err
}
