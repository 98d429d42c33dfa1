package bridge

import (
	"context"
	"strings"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Submitter delivers proof envelopes to a destination chain.
type Submitter interface {
	SubmitProof(ctx context.Context, env *Envelope) error
}

// submitProofABI is the fragment of the on-chain verifier contract the
// submitter calls into.
const submitProofABI = `[{"inputs":[{"internalType":"bytes","name":"envelope","type":"bytes"}],"name":"submitProof","outputs":[{"internalType":"bool","name":"accepted","type":"bool"}],"stateMutability":"view","type":"function"}]`

// EVMSubmitter hands envelopes to a verifier contract on an EVM chain via
// eth_call.
type EVMSubmitter struct {
	client   *ethclient.Client
	contract common.Address
	abi      abi.ABI
	logger   log.Logger
}

// NewEVMSubmitter dials the EVM RPC endpoint and targets the verifier
// contract at the given address.
func NewEVMSubmitter(rpcURL string, contract common.Address, logger log.Logger) (*EVMSubmitter, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(strings.NewReader(submitProofABI))
	if err != nil {
		return nil, err
	}
	return &EVMSubmitter{client: client, contract: contract, abi: parsed, logger: logger}, nil
}

// SubmitProof implements Submitter. It returns ErrSubmissionRejected when
// the contract reports the envelope as not accepted.
func (s *EVMSubmitter) SubmitProof(ctx context.Context, env *Envelope) error {
	data, err := s.abi.Pack("submitProof", env.Encode())
	if err != nil {
		return err
	}
	out, err := s.client.CallContract(ctx, ethereum.CallMsg{To: &s.contract, Data: data}, nil)
	if err != nil {
		return ErrSubmissionRejected.Wrap(err.Error())
	}
	res, err := s.abi.Unpack("submitProof", out)
	if err != nil {
		return ErrSubmissionRejected.Wrap(err.Error())
	}
	if len(res) != 1 {
		return ErrSubmissionRejected.Wrapf("unexpected return arity %d", len(res))
	}
	accepted, ok := res[0].(bool)
	if !ok || !accepted {
		return ErrSubmissionRejected.Wrapf("contract %s rejected envelope", s.contract.Hex())
	}
	s.logger.Info("submitted proof envelope",
		"contract", s.contract.Hex(),
		"new_state", env.NewStateCommitment.String(),
	)
	return nil
}

// Close releases the underlying RPC connection.
func (s *EVMSubmitter) Close() { s.client.Close() }

// NopSubmitter logs envelopes instead of delivering them. It backs the demo
// and any deployment without a destination chain.
type NopSubmitter struct {
	logger log.Logger
}

// NewNopSubmitter creates a submitter that only logs.
func NewNopSubmitter(logger log.Logger) *NopSubmitter {
	return &NopSubmitter{logger: logger}
}

// SubmitProof implements Submitter.
func (s *NopSubmitter) SubmitProof(_ context.Context, env *Envelope) error {
	s.logger.Info("skipping proof submission",
		"accept", env.Accept,
		"proof_bytes", len(env.Proof),
	)
	return nil
}
