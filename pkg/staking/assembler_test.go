package staking

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking-cli/pkg/solana"
	"github.com/code-payments/nft-staking-cli/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking-cli/pkg/testutil"
)

func TestAssemble(t *testing.T) {
	env := setup(t)

	res, err := newTestCatalog(env).Resolve(context.Background(), env.payerKey(), Withdraw{Amount: 1})
	require.NoError(t, err)

	envelope, err := Assemble(env.payerKey(), res.Instruction)
	require.NoError(t, err)
	assert.Equal(t, env.payerKey(), envelope.FeePayer)

	txn := envelope.Transaction
	assert.Len(t, txn.Signatures, 1)
	assert.Equal(t, env.payerKey(), txn.RequiredSigners()[0])
	assert.Equal(t, solana.Blockhash{}, txn.Message.RecentBlockhash)
	require.Len(t, txn.Message.Instructions, 1)

	decompiled, err := txn.Message.DecompileInstruction(0)
	require.NoError(t, err)
	assert.Equal(t, res.Instruction.Data, decompiled.Data)
	require.Len(t, decompiled.Accounts, len(res.Instruction.Accounts))
	for i, account := range res.Instruction.Accounts {
		assert.Equal(t, account.PublicKey, decompiled.Accounts[i].PublicKey, "account %d", i)
		assert.Equal(t, account.IsSigner, decompiled.Accounts[i].IsSigner, "account %d", i)
		assert.Equal(t, account.IsWritable, decompiled.Accounts[i].IsWritable, "account %d", i)
	}
}

func TestAssemble_Errors(t *testing.T) {
	env := setup(t)
	config := env.config
	other := testutil.GenerateSolanaKeys(t, 1)[0]

	_, err := Assemble(env.payerKey())
	assert.Error(t, err)

	_, err = Assemble(nil, solana.NewInstruction(config.Program, nil))
	assert.True(t, errors.Is(err, ErrMissingSigner))

	_, err = Assemble(env.payerKey(), solana.NewInstruction(config.Program, nil))
	assert.True(t, errors.Is(err, ErrMissingSigner))

	ix := nftstaking.NewWithdrawInstruction(config, &nftstaking.WithdrawInstructionAccounts{
		Payer:        other,
		Vault:        other,
		PayerRewards: other,
		VaultRewards: other,
	}, &nftstaking.WithdrawInstructionArgs{})
	_, err = Assemble(env.payerKey(), ix)
	assert.True(t, errors.Is(err, ErrMissingSigner))

	// A derived address can never sign.
	vault, _, err := nftstaking.GetVaultAddress(&nftstaking.GetVaultAddressArgs{})
	require.NoError(t, err)
	ix = solana.NewInstruction(
		config.Program,
		nil,
		solana.NewAccountMeta(env.payerKey(), true),
		solana.NewAccountMeta(vault, true),
	)
	_, err = Assemble(env.payerKey(), ix)
	assert.True(t, errors.Is(err, ErrInvalidSigner))
	assert.Equal(t, KindSigning, Classify(err))
}
