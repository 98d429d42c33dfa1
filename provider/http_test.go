package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

// newChainServer exposes a Local chain over the JSON wire shapes the HTTP
// provider consumes.
func newChainServer(t *testing.T, chain *Local) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "v1" {
			http.NotFound(w, r)
			return
		}
		height, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			http.Error(w, "bad height", http.StatusBadRequest)
			return
		}
		switch parts[1] {
		case "header":
			header, err := chain.SignedHeader(ctx, height)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			resp := headerResponse{
				Height:         header.Height,
				Time:           header.Time,
				PrevBlockHash:  header.PrevBlockHash,
				AppHash:        header.AppHash,
				ValidatorsHash: header.ValidatorsHash,
			}
			for _, sig := range header.Commit.Signatures {
				resp.Signatures = append(resp.Signatures, signatureRecord{
					ValidatorIndex: sig.ValidatorIndex,
					Signature:      sig.Signature[:],
				})
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		case "validators":
			vals, err := chain.ValidatorSet(ctx, height)
			if err != nil {
				http.NotFound(w, r)
				return
			}
			var resp validatorSetResponse
			for _, v := range vals.Validators {
				pk := v.PubKey
				resp.Validators = append(resp.Validators, validatorRecord{
					PubKey:      pk[:],
					VotingPower: v.VotingPower,
				})
			}
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProviderRoundTrip(t *testing.T) {
	chain, err := NewLocal(4, 10, nil)
	require.NoError(t, err)
	height, err := chain.AppendBlock(0, 1, 2)
	require.NoError(t, err)

	srv := newChainServer(t, chain)
	remote := NewHTTP(srv.URL, nil)
	ctx := context.Background()

	header, err := remote.SignedHeader(ctx, height)
	require.NoError(t, err)
	want, err := chain.SignedHeader(ctx, height)
	require.NoError(t, err)
	require.Equal(t, want, header)

	vals, err := remote.ValidatorSet(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, mustVals(t, chain).Hash(), vals.Hash())

	// Everything fetched over the wire still satisfies the verifier.
	next, err := lightclient.Verify(chain.Genesis(), header, &header.Commit, vals)
	require.NoError(t, err)
	require.Equal(t, height, next.Height)
}

func TestHTTPProviderErrors(t *testing.T) {
	chain, err := NewLocal(2, 1, nil)
	require.NoError(t, err)
	srv := newChainServer(t, chain)
	remote := NewHTTP(srv.URL, nil)
	ctx := context.Background()

	_, err = remote.SignedHeader(ctx, 999)
	require.ErrorIs(t, err, ErrHeightNotFound)
	_, err = remote.ValidatorSet(ctx, 999)
	require.ErrorIs(t, err, ErrHeightNotFound)

	// Unreachable endpoint surfaces as a network error, not a panic.
	srv.Close()
	_, err = remote.SignedHeader(ctx, 1)
	require.ErrorIs(t, err, ErrNetwork)
}

func TestHTTPProviderRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":        `garbage`,
		"short signature": `{"height":1,"signatures":[{"validator_index":0,"signature":"0x01"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()
			_, err := NewHTTP(srv.URL, nil).SignedHeader(context.Background(), 1)
			require.ErrorIs(t, err, ErrNetwork)
		})
	}
}
