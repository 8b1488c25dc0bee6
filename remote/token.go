package remote

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/santiagomed/launchpad/metadata"
)

// mintAccountSize is the SPL token mint account length.
const mintAccountSize = 82

func (s *Solana) createToken(ctx context.Context, owner solana.PublicKey, args Args) (Artifact, error) {
	amount, err := BaseUnits(args.Quantity, args.Decimals)
	if err != nil {
		return Artifact{}, newError(CreateToken, KindMalformed, "mint quantity", err)
	}

	uri, err := s.uploader.Upload(ctx, metadata.Token{
		Name:        args.Name,
		Symbol:      args.Symbol,
		Description: args.Description,
		Logo:        args.Logo,
		LogoName:    args.LogoName,
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("upload metadata: %w", err)
	}
	s.logger.Info(fmt.Sprintf("Uploaded token metadata to %s", uri))

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Artifact{}, newError(CreateToken, KindUnknown, "generate mint keypair", err)
	}
	mint := mintKey.PublicKey()

	rent, err := s.ledger.GetMinimumBalanceForRentExemption(ctx, mintAccountSize)
	if err != nil {
		return Artifact{}, err
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return Artifact{}, newError(CreateToken, KindMalformed, "derive token account", err)
	}

	ixs := []solana.Instruction{
		system.NewCreateAccountInstruction(rent, mintAccountSize, solana.TokenProgramID, owner, mint).Build(),
		token.NewInitializeMintInstruction(args.Decimals, owner, owner, mint, solana.SysVarRentPubkey).Build(),
		associatedtokenaccount.NewCreateInstruction(owner, owner, mint).Build(),
		token.NewMintToInstruction(amount, mint, ata, owner, nil).Build(),
	}
	if s.tokenMeta != nil {
		metaIxs, err := s.tokenMeta.BuildTokenMetadata(ctx, owner, TokenMetadataRequest{
			Mint:   mint,
			Name:   args.Name,
			Symbol: args.Symbol,
			URI:    uri,
		})
		if err != nil {
			return Artifact{}, fmt.Errorf("build token metadata: %w", err)
		}
		ixs = append(ixs, metaIxs...)
	}

	sigs, err := s.submit(ctx, CreateToken, owner, [][]solana.Instruction{ixs}, []solana.PrivateKey{mintKey})
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Address: mint.String(), MetadataURI: uri, Signatures: sigs}, nil
}

func (s *Solana) revokeAuthority(ctx context.Context, op OperationKind, owner solana.PublicKey, args Args) (Artifact, error) {
	mint, err := parseKey(op, "mint", args.Mint)
	if err != nil {
		return Artifact{}, err
	}
	authority := token.AuthorityMintTokens
	if op == RevokeFreezeAuthority {
		authority = token.AuthorityFreezeAccount
	}

	// No new authority: the authority is removed for good.
	ix := token.NewSetAuthorityInstructionBuilder().
		SetAuthorityType(authority).
		SetSubjectAccount(mint).
		SetAuthorityAccount(owner).
		Build()

	sigs, err := s.submit(ctx, op, owner, [][]solana.Instruction{{ix}}, nil)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Signatures: sigs}, nil
}

func (s *Solana) burnLP(ctx context.Context, owner solana.PublicKey, args Args) (Artifact, error) {
	lpMint, err := parseKey(BurnToken, "LP mint", args.LPMint)
	if err != nil {
		return Artifact{}, err
	}
	account, _, err := solana.FindAssociatedTokenAddress(owner, lpMint)
	if err != nil {
		return Artifact{}, newError(BurnToken, KindMalformed, "derive LP token account", err)
	}

	accounts, err := s.ledger.GetTokenAccountsByOwner(ctx, owner, lpMint)
	if err != nil {
		return Artifact{}, err
	}
	if len(accounts) == 0 {
		return Artifact{}, newError(BurnToken, KindMalformed, "wallet holds no LP token account", nil)
	}
	if !containsKey(accounts, account) {
		account = accounts[0]
	}

	balance, err := s.ledger.GetTokenAccountBalance(ctx, account)
	if err != nil {
		return Artifact{}, err
	}
	if balance == 0 {
		return Artifact{}, newError(BurnToken, KindInsufficientFunds, "LP token account is empty", nil)
	}

	ix := token.NewBurnInstruction(balance, account, lpMint, owner, nil).Build()
	sigs, err := s.submit(ctx, BurnToken, owner, [][]solana.Instruction{{ix}}, nil)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Address: account.String(), Signatures: sigs}, nil
}

func containsKey(keys []solana.PublicKey, key solana.PublicKey) bool {
	for _, k := range keys {
		if k.Equals(key) {
			return true
		}
	}
	return false
}
