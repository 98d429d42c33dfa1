package prover

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/ibc-mini/ibc-mini/circuit"
)

// Artifact file names under a key directory. One circuit shape, one triple.
const (
	csFile = "transition.r1cs"
	pkFile = "transition.pk"
	vkFile = "transition.vk"
)

// Keys is the immutable output of the trusted setup for the transition
// circuit shape. It is produced once, shared by reference across all proving
// workers, and never mutated afterwards.
type Keys struct {
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// Setup compiles the transition circuit to R1CS and runs the Groth16 trusted
// setup. The toxic waste is drawn from the process CSPRNG; for production use
// the keys should come out of a multi-party ceremony and be loaded with
// LoadKeys instead.
func Setup() (*Keys, error) {
	var c circuit.TransitionCircuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to compile transition circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("failed to run groth16 setup: %w", err)
	}
	return &Keys{cs: cs, pk: pk, vk: vk}, nil
}

// VerifyingKey exposes the verifying key, e.g. for export to an on-chain
// verifier.
func (k *Keys) VerifyingKey() groth16.VerifyingKey { return k.vk }

// NbConstraints reports the size of the compiled constraint system.
func (k *Keys) NbConstraints() int { return k.cs.GetNbConstraints() }

// Save writes the constraint system, proving key and verifying key to dir so
// the setup can be reused across processes.
func (k *Keys) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create key dir: %w", err)
	}
	if err := writeArtifact(filepath.Join(dir, csFile), k.cs); err != nil {
		return err
	}
	if err := writeArtifact(filepath.Join(dir, pkFile), k.pk); err != nil {
		return err
	}
	return writeArtifact(filepath.Join(dir, vkFile), k.vk)
}

// LoadKeys reads a previously saved setup from dir.
func LoadKeys(dir string) (*Keys, error) {
	cs := groth16.NewCS(ecc.BN254)
	if err := readArtifact(filepath.Join(dir, csFile), cs); err != nil {
		return nil, err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readArtifact(filepath.Join(dir, pkFile), pk); err != nil {
		return nil, err
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readArtifact(filepath.Join(dir, vkFile), vk); err != nil {
		return nil, err
	}
	return &Keys{cs: cs, pk: pk, vk: vk}, nil
}

// SerializeVerifyingKey returns the verifying key in gnark's binary form,
// the shape an external verifier expects to be initialized with.
func SerializeVerifyingKey(vk groth16.VerifyingKey) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeVerifyingKey parses a verifying key previously produced by
// SerializeVerifyingKey.
func DeserializeVerifyingKey(raw []byte) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	return vk, nil
}

func writeArtifact(path string, src io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := src.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readArtifact(path string, dst io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := dst.ReadFrom(f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}
