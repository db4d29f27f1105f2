// backend/internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	httpin "solusd/internal/adapters/in/http"
	"solusd/internal/adapters/in/http/middleware"
	dbadp "solusd/internal/adapters/out/db"
	fsadp "solusd/internal/adapters/out/firestore"
	gcsadp "solusd/internal/adapters/out/gcs"
	mailadp "solusd/internal/adapters/out/mail"

	uc "solusd/internal/application/usecase"
	"solusd/internal/domain/price"
	sc "solusd/internal/domain/stablecoin"

	appcfg "solusd/internal/infra/config"
	"solusd/internal/infra/database"
	firestoreinfra "solusd/internal/infra/firestore"
	"solusd/internal/infra/memledger"
	"solusd/internal/infra/metrics"
	solanainfra "solusd/internal/infra/solana"
)

// ========================================
// Container
// ========================================
type Container struct {
	Config  *appcfg.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Ledger is the Solana adapter or, with LEDGER_BACKEND=memory, memledger.
	Ledger    sc.Ledger
	Authority *solanainfra.MintAuthority

	FirebaseAuth *firebaseauth.Client

	Registry   *uc.MintRegistry
	IssuanceUC *uc.IssuanceUsecase
	BalanceUC  *uc.BalanceUsecase
	HistoryUC  *uc.HistoryUsecase

	closers []func() error
}

// NewContainer wires every adapter selected by cfg. Resources opened before a
// failure are closed before returning.
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (c *Container, err error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctr := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}
	defer func() {
		if err != nil {
			_ = ctr.Close()
		}
	}()
	c = ctr

	// 1. Secret Manager (shared by the mint key loader and the wallet authorizer)
	var secrets *solanainfra.SecretManagerReader
	if cfg.MintKeySecret != "" || cfg.WalletSigner == appcfg.SignerSecretManager {
		secrets, err = solanainfra.NewSecretManagerReader(ctx)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, secrets.Close)
		logger.Info("secret manager client initialized")
	}

	// 2. Wallet authorizer
	authorizer, err := buildAuthorizer(cfg, secrets)
	if err != nil {
		return nil, err
	}

	// 3. Ledger
	if err := c.buildLedger(ctx, authorizer, secrets); err != nil {
		return nil, err
	}

	// 4. Optional outbound adapters
	journal, err := c.buildJournal(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := c.buildPublisher(ctx)
	if err != nil {
		return nil, err
	}
	var notifier uc.IssuanceNotifier
	if cfg.NotificationsEnabled() {
		notifier = mailadp.NewIssuanceNotifier(
			mailadp.NewSendGridClient(cfg.SendGridAPIKey, logger.Named("mail")),
			cfg.NotifyFrom,
			cfg.NotifyTo,
		)
		logger.Info("sendgrid notifier enabled")
	}

	// 5. Firebase Auth
	if cfg.AuthRequired {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID})
		if err != nil {
			return nil, fmt.Errorf("firebase app init: %w", err)
		}
		c.FirebaseAuth, err = app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase auth init: %w", err)
		}
		logger.Info("firebase auth initialized", zap.String("project", cfg.FirebaseProjectID))
	}

	// 6. Application-layer usecases
	oracle, err := price.NewFixed(cfg.Rate)
	if err != nil {
		return nil, err
	}

	c.Registry = uc.NewMintRegistry(c.Ledger, logger).
		WithMetrics(c.Metrics).
		WithCreateTimeout(cfg.MintCreateTimeout)
	if publisher != nil {
		c.Registry.WithPublisher(publisher)
	}
	if cfg.MintAddress != "" {
		seed, err := sc.ValidateWallet(cfg.MintAddress)
		if err != nil {
			return nil, fmt.Errorf("SOLUSD_MINT_ADDRESS: %w", err)
		}
		c.Registry.WithSeed(sc.MintID(seed))
	}

	c.IssuanceUC = uc.NewIssuanceUsecase(c.Registry, c.Ledger, oracle, cfg.Cluster, logger).
		WithMetrics(c.Metrics)
	if journal != nil {
		c.IssuanceUC.WithJournal(journal)
	}
	if notifier != nil {
		c.IssuanceUC.WithNotifier(notifier)
	}
	c.BalanceUC = uc.NewBalanceUsecase(c.Registry, c.Ledger, logger)
	c.HistoryUC = uc.NewHistoryUsecase(c.Registry, c.Ledger, cfg.Cluster, logger)

	return c, nil
}

func buildAuthorizer(cfg *appcfg.Config, secrets solanainfra.SecretReader) (sc.WalletAuthorizer, error) {
	switch cfg.WalletSigner {
	case appcfg.SignerKeystore:
		return &solanainfra.KeystoreAuthorizer{Dir: cfg.WalletKeystoreDir}, nil
	case appcfg.SignerSecretManager:
		return solanainfra.NewSecretManagerAuthorizer(secrets, cfg.GCPProjectID, cfg.WalletSecretPrefix)
	default:
		return nil, nil
	}
}

func (c *Container) buildLedger(ctx context.Context, authorizer sc.WalletAuthorizer, secrets *solanainfra.SecretManagerReader) error {
	cfg := c.Config

	if cfg.LedgerBackend == appcfg.LedgerMemory {
		var opts []memledger.Option
		if authorizer != nil {
			opts = append(opts, memledger.WithAuthorizer(authorizer))
		}
		c.Ledger = memledger.New(memledger.Address("solusd-local-authority"), opts...)
		c.Logger.Warn("using in-memory ledger; state is lost on exit")
		return nil
	}

	src := solanainfra.MintAuthoritySource{
		KeyFile:    cfg.MintKeyFile,
		SecretName: cfg.MintKeySecret,
	}
	if secrets != nil {
		src.Secrets = secrets
	}
	authority, err := solanainfra.LoadMintAuthority(ctx, src, c.Logger)
	if err != nil {
		return err
	}
	if authority.Source == solanainfra.KeySourceEphemeral && cfg.MintAddress != "" {
		return errors.New("SOLUSD_MINT_ADDRESS requires the authority key of that mint (SOLANA_MINT_KEY_FILE or SOLANA_MINT_KEY_SECRET)")
	}

	ledger, err := solanainfra.NewLedger(solanainfra.LedgerConfig{
		RPCURL:         cfg.RPCURL,
		Commitment:     cfg.ConfirmCommitment,
		ConfirmTimeout: cfg.ConfirmTimeout,
	}, authority, authorizer, c.Logger)
	if err != nil {
		return err
	}
	c.Ledger = ledger
	c.Authority = authority
	c.Logger.Info("solana ledger initialized",
		zap.String("rpc", cfg.RPCURL),
		zap.String("cluster", cfg.Cluster),
		zap.String("authority", authority.Address()),
		zap.String("keySource", authority.Source),
	)
	return nil
}

func (c *Container) buildJournal(ctx context.Context) (uc.ReceiptJournal, error) {
	cfg := c.Config
	switch cfg.JournalBackend {
	case appcfg.JournalFirestore:
		cw, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, cw.Close)
		return fsadp.NewReceiptJournalFS(cw.Client), nil

	case appcfg.JournalPostgres:
		conn, err := database.NewConnection(ctx, cfg.DatabaseURL, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, conn.Close)
		j := dbadp.NewReceiptJournalPG(conn.Client)
		if err := j.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return j, nil

	default:
		return nil, nil
	}
}

func (c *Container) buildPublisher(ctx context.Context) (uc.MintPublisher, error) {
	bucket := strings.TrimSpace(c.Config.TokenMetadataBucket)
	if bucket == "" {
		return nil, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	c.closers = append(c.closers, client.Close)
	c.Logger.Info("token metadata publisher enabled", zap.String("bucket", bucket))
	return gcsadp.NewTokenMetadataPublisherGCS(client, bucket, c.Config.Cluster), nil
}

// RouterDeps hands the HTTP router its dependencies.
func (c *Container) RouterDeps() httpin.RouterDeps {
	deps := httpin.RouterDeps{
		IssuanceUC:          c.IssuanceUC,
		BalanceUC:           c.BalanceUC,
		HistoryUC:           c.HistoryUC,
		Metrics:             c.Metrics,
		Logger:              c.Logger,
		CORSAllowedOrigin:   c.Config.CORSAllowedOrigin,
		BalancePollInterval: c.Config.BalancePollInterval,
	}
	if c.FirebaseAuth != nil {
		deps.Auth = &middleware.FirebaseAuth{Verifier: c.FirebaseAuth, Logger: c.Logger.Named("auth")}
	}
	return deps
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
