package usecase

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/skatamatic/blulok-cloud-sub010/internal/config"
	apperrors "github.com/skatamatic/blulok-cloud-sub010/internal/errors"
	signingDomain "github.com/skatamatic/blulok-cloud-sub010/internal/signing/domain"
	signingService "github.com/skatamatic/blulok-cloud-sub010/internal/signing/service"
)

// rotationUseCase implements RotationUseCase.
//
// Rotation monotonicity is fatal in both flows: a ts at or below the
// persisted watermark fails with ErrRotationReplay whether the root key came
// from the KMS (managed) or from the caller (legacy). The watermark check and
// the key install are a single atomic storage operation, so concurrent
// ceremonies cannot both win.
type rotationUseCase struct {
	config       *config.Config
	keyStateRepo KeyStateRepository
	signer       signingService.Signer
	kmsService   signingService.KMSService
	broadcaster  Broadcaster
	installer    OperationsKeyInstaller
	logger       *slog.Logger
}

// NewRotationUseCase creates a new RotationUseCase. broadcaster and installer
// may be nil in CLI contexts where no gateway hub or signing authority is
// running.
func NewRotationUseCase(
	cfg *config.Config,
	keyStateRepo KeyStateRepository,
	signer signingService.Signer,
	kmsService signingService.KMSService,
	broadcaster Broadcaster,
	installer OperationsKeyInstaller,
	logger *slog.Logger,
) RotationUseCase {
	return &rotationUseCase{
		config:       cfg,
		keyStateRepo: keyStateRepo,
		signer:       signer,
		kmsService:   kmsService,
		broadcaster:  broadcaster,
		installer:    installer,
		logger:       logger,
	}
}

// InitializeKeys runs the first-boot key ceremony.
//
// The root seed is generated, wrapped through the configured KMS, and
// returned as ciphertext for deployment configuration; the plaintext seed is
// zeroed before returning unless no KMS is configured, in which case it is
// returned once for the operator to store offline. The operations seed is
// wrapped and persisted so the process can sign after restarts.
func (r *rotationUseCase) InitializeKeys(ctx context.Context) (*InitializeKeysOutput, error) {
	rootSeed, err := signingService.NewOperationsSeed()
	if err != nil {
		return nil, err
	}
	defer signingDomain.Zero(rootSeed)

	rootPub, _, err := signingService.KeyPairFromSeed(rootSeed)
	if err != nil {
		return nil, err
	}

	opsSeed, err := signingService.NewOperationsSeed()
	if err != nil {
		return nil, err
	}
	defer signingDomain.Zero(opsSeed)

	opsPub, _, err := signingService.KeyPairFromSeed(opsSeed)
	if err != nil {
		return nil, err
	}

	output := &InitializeKeysOutput{
		RootPublicKey:       base64.StdEncoding.EncodeToString(rootPub),
		OperationsPublicKey: base64.StdEncoding.EncodeToString(opsPub),
	}

	var encryptedOpsSeed []byte
	if r.config.KMSKeyURI != "" {
		keeper, err := r.kmsService.OpenKeeper(ctx, r.config.KMSKeyURI)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = keeper.Close()
		}()

		rootCiphertext, err := keeper.Encrypt(ctx, rootSeed)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to wrap root seed")
		}
		output.RootKeyCiphertext = base64.StdEncoding.EncodeToString(rootCiphertext)

		encryptedOpsSeed, err = keeper.Encrypt(ctx, opsSeed)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to wrap operations seed")
		}
	} else {
		// No KMS: the operator takes custody of the root seed and the
		// operations seed is persisted unwrapped. Development only.
		output.RootPrivateKey = base64.StdEncoding.EncodeToString(rootSeed)
		encryptedOpsSeed = append([]byte(nil), opsSeed...)
	}

	state := &signingDomain.KeyState{
		OperationsPublicKey:     opsPub,
		EncryptedOperationsSeed: encryptedOpsSeed,
		RootPublicKey:           rootPub,
		LastRotationTS:          0,
		UpdatedAt:               time.Now().UTC(),
	}

	if err := r.keyStateRepo.Initialize(ctx, state); err != nil {
		return nil, err
	}

	return output, nil
}

// RotateOperationsKey replaces the operations key.
//
// Order of operations: resolve and validate the root key, atomically advance
// the watermark (storage write), then sign and broadcast. A crash after the
// storage write but before the broadcast leaves a recoverable state; a
// reconnecting gateway pulls current key state.
func (r *rotationUseCase) RotateOperationsKey(
	ctx context.Context,
	input *RotateInput,
) (*RotateOutput, error) {
	state, err := r.keyStateRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	ts := input.Ts
	if ts == 0 {
		ts = time.Now().UTC().Unix()
	}
	if ts <= state.LastRotationTS {
		return nil, signingDomain.ErrRotationReplay
	}

	rootPriv, cleanupRoot, err := r.resolveRootKey(ctx, input)
	if err != nil {
		return nil, err
	}
	defer cleanupRoot()

	// The resolved private key must correspond to the root public key the
	// devices were manufactured with.
	if !bytes.Equal(rootPriv.Public().(ed25519.PublicKey), state.RootPublicKey) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "root key does not match device trust anchor")
	}

	output := &RotateOutput{}

	opsSeed, err := signingService.NewOperationsSeed()
	if err != nil {
		return nil, err
	}
	defer signingDomain.Zero(opsSeed)

	newOpsPub, _, err := signingService.KeyPairFromSeed(opsSeed)
	if err != nil {
		return nil, err
	}
	output.GeneratedPublicKey = base64.StdEncoding.EncodeToString(newOpsPub)

	var encryptedOpsSeed []byte
	if r.config.KMSKeyURI != "" {
		keeper, err := r.kmsService.OpenKeeper(ctx, r.config.KMSKeyURI)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = keeper.Close()
		}()

		encryptedOpsSeed, err = keeper.Encrypt(ctx, opsSeed)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to wrap operations seed")
		}
	} else {
		output.GeneratedPrivateKey = base64.StdEncoding.EncodeToString(opsSeed)
		encryptedOpsSeed = append([]byte(nil), opsSeed...)
	}

	// Storage write precedes the broadcast; the repository enforces the
	// watermark atomically so a concurrent ceremony cannot also win.
	if err := r.keyStateRepo.AdvanceRotation(ctx, ts, newOpsPub, encryptedOpsSeed); err != nil {
		return nil, err
	}

	// The running process must sign with the new key from here on; a stale
	// in-memory key would sign commands devices holding the rotated key reject.
	if r.installer != nil {
		if err := r.installer.InstallOperationsKey(opsSeed); err != nil {
			return nil, apperrors.Wrap(err, "failed to install rotated operations key")
		}
	}

	payload := signingDomain.NewRotateOperationsKey(
		base64.StdEncoding.EncodeToString(newOpsPub),
		ts,
		signingDomain.Fingerprint(state.RootPublicKey),
	)

	packet, err := r.signer.Packet(payload, rootPriv)
	if err != nil {
		return nil, err
	}

	output.Payload = payload
	output.Packet = packet

	if r.broadcaster != nil {
		if err := r.broadcaster.Broadcast(ctx, packet); err != nil {
			// Delivery is best effort: gateways that missed the broadcast
			// pull key state on reconnect.
			r.logger.Warn("rotation broadcast incomplete", slog.Any("error", err))
		}
	}

	r.logger.Info("operations key rotated",
		slog.Int64("ts", ts),
		slog.String("new_public_key", base64.StdEncoding.EncodeToString(newOpsPub)),
	)

	return output, nil
}

// resolveRootKey returns the root private key for the selected flow plus a
// cleanup function that zeroes transient material.
func (r *rotationUseCase) resolveRootKey(
	ctx context.Context,
	input *RotateInput,
) (ed25519.PrivateKey, func(), error) {
	if input.RootPrivateKey != "" {
		priv, err := signingService.ParsePrivateKey(input.RootPrivateKey)
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
		}
		return priv, func() { signingDomain.Zero(priv) }, nil
	}

	if r.config.KMSKeyURI == "" || r.config.RootKeyCiphertext == "" {
		return nil, nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"no root key supplied and no KMS root ciphertext configured",
		)
	}

	keeper, err := r.kmsService.OpenKeeper(ctx, r.config.KMSKeyURI)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := base64.StdEncoding.DecodeString(r.config.RootKeyCiphertext)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "invalid root key ciphertext encoding")
	}

	seed, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to unwrap root seed")
	}

	if len(seed) != ed25519.SeedSize {
		signingDomain.Zero(seed)
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unwrapped root seed has invalid length")
	}

	priv := ed25519.NewKeyFromSeed(seed)
	signingDomain.Zero(seed)
	return priv, func() { signingDomain.Zero(priv) }, nil
}
