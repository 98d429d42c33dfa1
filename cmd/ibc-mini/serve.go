package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/ibc-mini/ibc-mini/bridge"
	"github.com/ibc-mini/ibc-mini/config"
	"github.com/ibc-mini/ibc-mini/lightclient"
	"github.com/ibc-mini/ibc-mini/provider"
	"github.com/ibc-mini/ibc-mini/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the stored trusted states, proof envelopes and headers over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			src, err := newProvider(cfg)
			if err != nil {
				return err
			}
			st, err := store.OpenBolt(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			api := &apiServer{store: st, provider: src, logger: logger}
			srv := &http.Server{
				Addr:         cfg.APIAddr,
				Handler:      api.router(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("api listening", "addr", cfg.APIAddr)
				errCh <- srv.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				logger.Info("shutting down", "signal", sig.String())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
}

type apiServer struct {
	store    store.Store
	provider provider.Provider
	logger   log.Logger
}

func (a *apiServer) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/state/latest", a.handleLatestState).Methods(http.MethodGet)
	r.HandleFunc("/v1/state/{height}", a.handleState).Methods(http.MethodGet)
	r.HandleFunc("/v1/proof/{height}", a.handleProof).Methods(http.MethodGet)
	r.HandleFunc("/v1/header/{height}", a.handleHeader).Methods(http.MethodGet)
	r.HandleFunc("/v1/validators/{height}", a.handleValidators).Methods(http.MethodGet)
	return r
}

type stateResponse struct {
	Height         uint64           `json:"height"`
	ValidatorsHash lightclient.Hash `json:"validators_hash"`
	BlockHash      lightclient.Hash `json:"block_hash"`
}

func (a *apiServer) handleLatestState(w http.ResponseWriter, _ *http.Request) {
	ts, err := a.store.Latest()
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, stateResponse{ts.Height, ts.ValidatorsHash, ts.BlockHash})
}

func (a *apiServer) handleState(w http.ResponseWriter, r *http.Request) {
	height, ok := a.pathHeight(w, r)
	if !ok {
		return
	}
	ts, err := a.store.At(height)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, stateResponse{ts.Height, ts.ValidatorsHash, ts.BlockHash})
}

func (a *apiServer) handleProof(w http.ResponseWriter, r *http.Request) {
	height, ok := a.pathHeight(w, r)
	if !ok {
		return
	}
	raw, err := a.store.Envelope(height)
	if err != nil {
		a.writeError(w, err)
		return
	}
	env, err := bridge.DecodeEnvelope(raw)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, env)
}

// Wire shapes below match what provider.HTTP expects, so one ibc-mini serve
// instance backed by a local chain can feed another instance's prover.

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

func (a *apiServer) handleHeader(w http.ResponseWriter, r *http.Request) {
	height, ok := a.pathHeight(w, r)
	if !ok {
		return
	}
	header, err := a.provider.SignedHeader(r.Context(), height)
	if err != nil {
		a.writeError(w, err)
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
			Signature:      append(hexutil.Bytes(nil), sig.Signature[:]...),
		})
	}
	a.writeJSON(w, resp)
}

type validatorSetResponse struct {
	Validators []validatorRecord `json:"validators"`
}

type validatorRecord struct {
	PubKey      hexutil.Bytes `json:"pub_key"`
	VotingPower uint64        `json:"voting_power"`
}

func (a *apiServer) handleValidators(w http.ResponseWriter, r *http.Request) {
	height, ok := a.pathHeight(w, r)
	if !ok {
		return
	}
	vals, err := a.provider.ValidatorSet(r.Context(), height)
	if err != nil {
		a.writeError(w, err)
		return
	}
	resp := validatorSetResponse{}
	for _, v := range vals.Validators {
		resp.Validators = append(resp.Validators, validatorRecord{
			PubKey:      append(hexutil.Bytes(nil), v.PubKey[:]...),
			VotingPower: v.VotingPower,
		})
	}
	a.writeJSON(w, resp)
}

func (a *apiServer) pathHeight(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	height, err := cast.ToUint64E(mux.Vars(r)["height"])
	if err != nil || height == 0 {
		http.Error(w, "invalid height", http.StatusBadRequest)
		return 0, false
	}
	return height, true
}

func (a *apiServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("writing response", "err", err)
	}
}

func (a *apiServer) writeError(w http.ResponseWriter, err error) {
	switch {
	case store.ErrNotFound.Is(err) || store.ErrEmpty.Is(err) || provider.ErrHeightNotFound.Is(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		a.logger.Error("request failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
