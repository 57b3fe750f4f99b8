package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/controlvector/cv-git/internal/cache"
	"github.com/controlvector/cv-git/internal/config"
	"github.com/controlvector/cv-git/internal/credential"
	"github.com/controlvector/cv-git/internal/cverrors"
	"github.com/controlvector/cv-git/internal/embedding"
	"github.com/controlvector/cv-git/internal/gitrepo"
	"github.com/controlvector/cv-git/internal/graphstore"
	"github.com/controlvector/cv-git/internal/observability"
	"github.com/controlvector/cv-git/internal/parser"
	"github.com/controlvector/cv-git/internal/parser/markdown"
	"github.com/controlvector/cv-git/internal/parser/treesitter"
	"github.com/controlvector/cv-git/internal/platform"
	_ "github.com/controlvector/cv-git/internal/platform/github"
	"github.com/controlvector/cv-git/internal/semanticgraph"
	"github.com/controlvector/cv-git/internal/summary"
	"github.com/controlvector/cv-git/internal/vectorstore"
	"github.com/controlvector/cv-git/internal/vectorstore/qdrant"
	"github.com/controlvector/cv-git/internal/vectorstore/sqlite"
)

// appContext bundles every long-lived dependency a command needs, built once
// per invocation in the same order the teacher's main() built its MCP
// server's dependencies: config, logger, stores, embedder, then the services
// layered on top.
type appContext struct {
	cfg    *config.Config
	logger *observability.Logger

	repoRoot string
	repoID   string

	cacheStore *cache.Cache
	credStore  *credential.Store

	metrics *observability.MetricsCollector

	vstore        vectorstore.VectorStore
	usedFallback  bool
	gstore        graphstore.Graph
	embedder      embedding.Embedder
	registry      *parser.Registry
	markdown      *markdown.Parser
	semanticGraph *semanticgraph.Service
	summarizer    *summary.Service

	tracerProvider *observability.TracerProvider
}

// requireRepoRoot finds the enclosing repository or exits with the fixed
// not-in-repo remediation, per spec.md §7.
func requireRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", cverrors.Wrap(cverrors.KindInternal, "resolve working directory", err)
	}
	root, err := gitrepo.Root(cwd)
	if err != nil {
		return "", cverrors.New(cverrors.KindNotInRepo, "not a git repository (or any parent up to root) — run inside a git repo")
	}
	return root, nil
}

// appOption customizes newAppContext's wiring for commands that need a
// variant setup (e.g. sync --in-memory for a disposable vector store).
type appOption func(*appOptions)

type appOptions struct {
	inMemoryVectorStore bool
}

// withInMemoryVectorStore swaps the qdrant/sqlite-backed vector store for a
// process-local vectorstore.MemoryStore. Useful for one-off syncs (CI smoke
// tests, throwaway scratch repos) where persisting an index is pointless.
func withInMemoryVectorStore() appOption {
	return func(o *appOptions) { o.inMemoryVectorStore = true }
}

// newAppContext loads configuration and wires every service a command might
// need. Commands that don't need the graph/vector layer (auth, config) can
// ignore those fields; gstore is nil whenever neo4j is unreachable, per
// internal/semanticgraph's documented nil-graph degradation.
func newAppContext(ctx context.Context, repoRoot string, opts ...appOption) (*appContext, error) {
	var options appOptions
	for _, opt := range opts {
		opt(&options)
	}
	cfg, err := config.Load(ctx, repoRoot)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		Output:        os.Stderr,
		AddSource:     false,
		SentryEnabled: cfg.Observability.Sentry.Enabled,
	})

	var metrics *observability.MetricsCollector
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.NewMetricsCollector("cvgit")
		go startMetricsServer(ctx, cfg.Observability.Metrics, logger)
	}

	var tracerProvider *observability.TracerProvider
	if cfg.Observability.Tracing.Enabled {
		tracerProvider, err = observability.NewTracerProvider(observability.TracerConfig{
			ServiceName:    "cv",
			ServiceVersion: Version,
			Environment:    "development",
			OTLPEndpoint:   cfg.Observability.Tracing.Endpoint,
			SamplingRate:   cfg.Observability.Tracing.SampleRate,
			Enabled:        true,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
	}

	dataDir := filepath.Join(repoRoot, ".cv")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create .cv directory: %w", err)
	}

	repoID := filepath.Base(repoRoot)

	credStore, err := openCredentialStore(cfg)
	if err != nil {
		logger.Warn("credential store unavailable", "error", err)
	}

	var remoteTier cache.RemoteTier
	if cfg.Cache.Redis.Enabled {
		remoteTier, err = cache.NewRedisTier(ctx, cache.RedisConfig{Addr: cfg.Cache.Redis.Addr, DB: cfg.Cache.Redis.DB})
		if err != nil {
			logger.Warn("redis cache tier unavailable, continuing process-local only", "error", err)
			remoteTier = nil
		}
	}
	cacheStore := cache.New(remoteTier, cache.Config{
		PerNamespaceSize: cfg.Cache.MaxEntriesPerNamespace,
		RemoteTTL:        cfg.Cache.TTL,
	})

	var vstore vectorstore.VectorStore
	var usedFallback bool
	if options.inMemoryVectorStore {
		vstore = vectorstore.NewMemoryStore()
		logger.Warn("running with an in-memory vector store; nothing will persist across process exit")
	} else {
		vstore, usedFallback, err = vectorstore.Open(
			ctx,
			func(ctx context.Context, host string, port int, dimensions uint64, collections map[string]string) (vectorstore.VectorStore, error) {
				return qdrant.New(ctx, host, port, dimensions, collections)
			},
			cfg.Vector.URL,
			dataDir,
			uint64(cfg.Vector.Dimensions),
			cfg.Vector.Collections,
			func(path string) (vectorstore.VectorStore, error) {
				return sqlite.NewStoreWithCollections(path, cfg.Vector.Collections)
			},
		)
		if err != nil {
			return nil, fmt.Errorf("open vector store: %w", err)
		}
		if usedFallback {
			logger.Warn("qdrant unreachable, falling back to local sqlite vector store", "url", cfg.Vector.URL)
		}
	}

	var gstore graphstore.Graph
	if cfg.Graph.URL != "" {
		gstore, err = graphstore.NewStore(ctx, cfg.Graph.URL, "", "", cfg.Graph.Database)
		if err != nil {
			logger.Warn("graph store unreachable, running graph-enrichment-free", "error", err)
			gstore = nil
		}
	}

	embedder, err := buildEmbedder(cfg, credStore)
	if err != nil {
		logger.Warn("embedder unavailable, falling back to mock embedder", "error", err)
		embedder = embedding.NewMock(cfg.Vector.Dimensions)
	}

	registry := parser.NewRegistry(parser.NewRegexParser())
	registry.Register(treesitter.New())
	registry.Register(parser.NewGoParser()) // registered last so native Go AST wins over tree-sitter for .go files

	semSvc := semanticgraph.New(embedder, vstore, gstore, repoID, cfg.Graph.BridgeMaxDepth)
	summarizer := summary.New(nil, summary.NewMemoryHashCache(), summary.Config{})

	return &appContext{
		cfg:            cfg,
		logger:         logger,
		repoRoot:       repoRoot,
		repoID:         repoID,
		cacheStore:     cacheStore,
		credStore:      credStore,
		metrics:        metrics,
		vstore:         vstore,
		usedFallback:   usedFallback,
		gstore:         gstore,
		embedder:       embedder,
		registry:       registry,
		markdown:       markdown.New(),
		semanticGraph:  semSvc,
		summarizer:     summarizer,
		tracerProvider: tracerProvider,
	}, nil
}

// loadCfgOnly loads configuration for commands that only need the
// credential store or config tree, without paying for the full
// vector/graph/embedder bootstrap newAppContext performs.
func loadCfgOnly(cmd *cobra.Command, repoRoot string) (*config.Config, error) {
	return config.Load(cmd.Context(), repoRoot)
}

func openCredentialStore(cfg *config.Config) (*credential.Store, error) {
	sidecarPath := filepath.Join(config.GlobalConfigPath(), "..", "credentials-metadata.json")
	sidecarPath = filepath.Clean(sidecarPath)
	if cfg.Credentials.Storage == "file" {
		return credential.OpenWithBackend(sidecarPath, credential.BackendFile)
	}
	return credential.Open(sidecarPath)
}

// buildEmbedder resolves the configured AI provider's embedder, pulling its
// API key from the credential store first (per spec.md §4.7's retrieval
// precedence) and falling back to the matching environment variable.
func buildEmbedder(cfg *config.Config, credStore *credential.Store) (embedding.Embedder, error) {
	provider, err := embedding.Get(cfg.AI.Provider)
	if err != nil {
		return nil, err
	}

	apiKey := apiKeyEnvVar(cfg.AI.Provider)
	if credStore != nil {
		if cred, err := credStore.Get(context.Background(), string(credentialTypeFor(cfg.AI.Provider))+":default"); err == nil {
			apiKey = cred.Value
		}
	}

	return provider.Create(map[string]interface{}{
		"api_key":    apiKey,
		"model":      cfg.AI.Model,
		"dimensions": cfg.Vector.Dimensions,
	})
}

func credentialTypeFor(provider string) credential.Type {
	switch provider {
	case "openai":
		return credential.TypeOpenAIKey
	case "openrouter":
		return credential.TypeOpenRouterKey
	default:
		return credential.TypeAnthropicKey
	}
}

func apiKeyEnvVar(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// platformAdapter lazily constructs the git-hosting adapter for this repo's
// origin remote, resolving the token from the credential store.
func (a *appContext) platformAdapter(ctx context.Context) (platform.Adapter, error) {
	platformType := a.cfg.Platform.Type
	if platformType == "" {
		remoteURL, err := gitrepo.RemoteURL(a.repoRoot, "origin")
		if err != nil {
			return nil, cverrors.Wrap(cverrors.KindInvalidInput, "detect platform from git remote", err)
		}
		detected, err := platform.DetectPlatform(remoteURL)
		if err != nil {
			return nil, err
		}
		platformType = string(detected)
	}

	var token string
	if a.credStore != nil {
		id := string(credential.TypeGitHubToken) + ":default"
		if cred, err := a.credStore.Get(ctx, id); err == nil {
			token = cred.Value
		}
	}
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	return platform.CreatePlatformAdapter(platform.Config{
		Type: platform.Platform(platformType),
		URL:  a.cfg.Platform.URL,
		API:  a.cfg.Platform.API,
	}, token)
}

func (a *appContext) originOwnerRepo() (owner, repo string, err error) {
	remoteURL, err := gitrepo.RemoteURL(a.repoRoot, "origin")
	if err != nil {
		return "", "", err
	}
	return gitrepo.OwnerRepo(remoteURL)
}

// startMetricsServer serves Prometheus metrics on a dedicated port for the
// lifetime of a single cv invocation, matching the teacher's standalone
// metrics listener; most cv commands finish in well under a second, so the
// listener mainly matters for long-running `cv sync` on large repos.
func startMetricsServer(ctx context.Context, cfg config.MetricsConfig, logger *observability.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Debug("starting metrics server", "addr", server.Addr, "path", cfg.Path)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics server stopped", "error", err)
	}
}

func (a *appContext) Close() {
	if a.vstore != nil {
		_ = a.vstore.Close()
	}
	if a.gstore != nil {
		_ = a.gstore.Close(context.Background())
	}
	if a.cacheStore != nil {
		_ = a.cacheStore.Close()
	}
	if a.tracerProvider != nil {
		_ = a.tracerProvider.Shutdown(context.Background())
	}
}
