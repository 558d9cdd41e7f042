package address

import (
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/exchange-booth/internal/convert"
	"github.com/lugondev/exchange-booth/internal/errors"
	"github.com/lugondev/exchange-booth/pkg/types"
)

func newKey() types.Pubkey {
	return solana.NewWallet().PublicKey()
}

type slot struct {
	key    types.Pubkey
	signer bool
}

func (s slot) Key() types.Pubkey { return s.key }
func (s slot) IsSigner() bool    { return s.signer }

func TestDerivationIsStable(t *testing.T) {
	program, admin, mintA, mintB := newKey(), newKey(), newKey(), newKey()

	first := MustDeriveBoothAddresses(program, admin, mintA, mintB)
	second := MustDeriveBoothAddresses(program, admin, mintA, mintB)

	pairs := [][2]Derived{
		{first.Oracle, second.Oracle}, {first.Booth, second.Booth},
		{first.VaultA, second.VaultA}, {first.VaultB, second.VaultB},
	}
	for _, p := range pairs {
		if !p[0].Address.Equals(p[1].Address) || p[0].Bump != p[1].Bump {
			t.Fatalf("derivation changed between calls: %s/%d vs %s/%d", p[0].Address, p[0].Bump, p[1].Address, p[1].Bump)
		}
	}

	// Each derived address must be re-creatable from its signer seeds.
	for name, d := range map[string]Derived{
		"oracle": first.Oracle, "booth": first.Booth, "vault A": first.VaultA, "vault B": first.VaultB,
	} {
		addr, err := solana.CreateProgramAddress(d.SignerSeeds(), program)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !addr.Equals(d.Address) {
			t.Errorf("%s: signer seeds give %s, want %s", name, addr, d.Address)
		}
	}
}

func TestDerivationChangesWithEverySeed(t *testing.T) {
	program, admin, mintA, mintB := newKey(), newKey(), newKey(), newKey()
	base := MustDeriveBoothAddresses(program, admin, mintA, mintB)

	variants := map[string]*BoothAddresses{
		"program": MustDeriveBoothAddresses(newKey(), admin, mintA, mintB),
		"admin":   MustDeriveBoothAddresses(program, newKey(), mintA, mintB),
		"mint A":  MustDeriveBoothAddresses(program, admin, newKey(), mintB),
		"mint B":  MustDeriveBoothAddresses(program, admin, mintA, newKey()),
		"swapped": MustDeriveBoothAddresses(program, admin, mintB, mintA),
	}
	for name, v := range variants {
		if v.Oracle.Address.Equals(base.Oracle.Address) {
			t.Errorf("%s: oracle collides", name)
		}
		if v.Booth.Address.Equals(base.Booth.Address) {
			t.Errorf("%s: booth collides", name)
		}
	}

	if base.VaultA.Address.Equals(base.VaultB.Address) {
		t.Error("vaults of distinct mints collide")
	}
}

func TestValidator(t *testing.T) {
	program := newKey()
	var logged []string
	v := NewValidator(program, nil, func(format string, args ...any) {
		logged = append(logged, format)
	})

	if err := v.RequireSigner(RoleAdmin, slot{key: newKey(), signer: true}); err != nil {
		t.Errorf("signed slot rejected: %v", err)
	}
	err := v.RequireSigner(RoleAdmin, slot{key: newKey()})
	if !errors.Is(err, errors.ErrMissingRequiredSignature) {
		t.Errorf("got %v, want MissingRequiredSignature", err)
	}

	a, b := newKey(), newKey()
	if err := v.ExpectAddress(RoleVaultA, a, a); err != nil {
		t.Errorf("equal addresses rejected: %v", err)
	}
	err = v.ExpectAddress(RoleVaultA, a, b)
	if !errors.Is(err, errors.ErrInvalidAccountAddress) {
		t.Fatalf("got %v, want InvalidAccountAddress", err)
	}
	var be *errors.BoothError
	if !errors.As(err, &be) || be.Details["role"] != "Vault A" {
		t.Errorf("role not reported: %v", err)
	}

	if !errors.Is(v.ExpectMint(RoleSourceA, a, b), errors.ErrInvalidAccountAddress) {
		t.Error("mint mismatch accepted")
	}
	if !errors.Is(v.ExpectDistinct(RoleMintA, a, a), errors.ErrInvalidAccountAddress) {
		t.Error("identical mints accepted")
	}

	oracle, err := DeriveOracle(program, a, b, b)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.ExpectDerived(RoleOracle, OracleSeeds(a, b, b), oracle.Address); err != nil {
		t.Errorf("derived oracle rejected: %v", err)
	}
	if _, err := v.ExpectDerived(RoleOracle, OracleSeeds(a, b, b), a); !errors.Is(err, errors.ErrInvalidAccountAddress) {
		t.Errorf("wrong oracle accepted: %v", err)
	}

	if len(logged) != 5 {
		t.Errorf("expected a log line per failure, got %d", len(logged))
	}
}

func TestExchangeDirection(t *testing.T) {
	program, admin, mintA, mintB := newKey(), newKey(), newKey(), newKey()
	v := NewValidator(program, nil, nil)
	addrs := MustDeriveBoothAddresses(program, admin, mintA, mintB)

	dir, oracle, err := v.ExchangeDirection(admin, mintA, mintB, addrs.Oracle.Address)
	if err != nil || dir != convert.ToB {
		t.Fatalf("giving A: got %v, %v", dir, err)
	}
	if !oracle.Address.Equals(addrs.Oracle.Address) {
		t.Error("wrong oracle returned")
	}

	dir, _, err = v.ExchangeDirection(admin, mintB, mintA, addrs.Oracle.Address)
	if err != nil || dir != convert.ToA {
		t.Fatalf("giving B: got %v, %v", dir, err)
	}

	_, _, err = v.ExchangeDirection(admin, mintA, mintB, newKey())
	if !errors.Is(err, errors.ErrInvalidAccountAddress) {
		t.Fatalf("unrelated oracle: got %v", err)
	}

	_, _, err = v.ExchangeDirection(newKey(), mintA, mintB, addrs.Oracle.Address)
	if !errors.Is(err, errors.ErrInvalidAccountAddress) {
		t.Fatalf("foreign admin: got %v", err)
	}
}
