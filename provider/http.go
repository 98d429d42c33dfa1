package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ibc-mini/ibc-mini/lightclient"
)

// HTTP fetches headers and validator sets from a remote node over its JSON
// API. Responses use the same wire shapes the serve command exposes.
type HTTP struct {
	base   string
	client *http.Client
}

// NewHTTP creates a provider talking to the node at base, e.g.
// "http://localhost:8080". A nil client gets a default with a 10s timeout.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTP{base: strings.TrimRight(base, "/"), client: client}
}

type headerResponse struct {
	Height         uint64            `json:"height"`
	Time           uint64            `json:"time"`
	PrevBlockHash  lightclient.Hash  `json:"prev_block_hash"`
	AppHash        lightclient.Hash  `json:"app_hash"`
	ValidatorsHash lightclient.Hash  `json:"validators_hash"`
	Signatures     []signatureRecord `json:"signatures"`
}

type signatureRecord struct {
	ValidatorIndex uint32        `json:"validator_index"`
	Signature      hexutil.Bytes `json:"signature"`
}

type validatorSetResponse struct {
	Validators []validatorRecord `json:"validators"`
}

type validatorRecord struct {
	PubKey      hexutil.Bytes `json:"pub_key"`
	VotingPower uint64        `json:"voting_power"`
}

// SignedHeader implements Provider.
func (p *HTTP) SignedHeader(ctx context.Context, height uint64) (*lightclient.SignedHeader, error) {
	var resp headerResponse
	if err := p.get(ctx, fmt.Sprintf("/v1/header/%d", height), &resp); err != nil {
		return nil, err
	}
	header := &lightclient.SignedHeader{
		Height:         resp.Height,
		Time:           resp.Time,
		PrevBlockHash:  resp.PrevBlockHash,
		AppHash:        resp.AppHash,
		ValidatorsHash: resp.ValidatorsHash,
	}
	for _, rec := range resp.Signatures {
		if len(rec.Signature) != lightclient.SignatureSize {
			return nil, ErrNetwork.Wrapf("signature must be %d bytes, got %d", lightclient.SignatureSize, len(rec.Signature))
		}
		var sig [lightclient.SignatureSize]byte
		copy(sig[:], rec.Signature)
		header.Commit.Signatures = append(header.Commit.Signatures, lightclient.CommitSig{
			ValidatorIndex: rec.ValidatorIndex,
			Signature:      sig,
		})
	}
	return header, nil
}

// ValidatorSet implements Provider.
func (p *HTTP) ValidatorSet(ctx context.Context, height uint64) (*lightclient.ValidatorSet, error) {
	var resp validatorSetResponse
	if err := p.get(ctx, fmt.Sprintf("/v1/validators/%d", height), &resp); err != nil {
		return nil, err
	}
	validators := make([]lightclient.Validator, len(resp.Validators))
	for i, rec := range resp.Validators {
		if len(rec.PubKey) != lightclient.PubKeySize {
			return nil, ErrNetwork.Wrapf("public key must be %d bytes, got %d", lightclient.PubKeySize, len(rec.PubKey))
		}
		copy(validators[i].PubKey[:], rec.PubKey)
		validators[i].VotingPower = rec.VotingPower
	}
	return lightclient.NewValidatorSet(validators)
}

func (p *HTTP) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+path, nil)
	if err != nil {
		return ErrNetwork.Wrap(err.Error())
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return ErrNetwork.Wrap(err.Error())
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrHeightNotFound.Wrap(path)
	case resp.StatusCode != http.StatusOK:
		return ErrNetwork.Wrapf("%s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ErrNetwork.Wrapf("%s: decoding response: %v", path, err)
	}
	return nil
}
