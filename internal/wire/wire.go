// Package wire provides dependency injection for the acode application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	cliadapter "github.com/example/acode/internal/adapters/cli"
	"github.com/example/acode/internal/adapters/filesystem"
	"github.com/example/acode/internal/adapters/remote"
	"github.com/example/acode/internal/adapters/sqlite"
	"github.com/example/acode/internal/app"
	"github.com/example/acode/internal/config"
	"github.com/example/acode/internal/db"
	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/terminal"
)

var (
	bindingService      primary.BindingService
	contextService      primary.ContextService
	conversationService primary.ConversationService
	lockService         primary.LockService
	syncService         primary.SyncService
	once                sync.Once
)

// BindingService returns the singleton BindingService instance.
func BindingService() primary.BindingService {
	once.Do(initServices)
	return bindingService
}

// ContextService returns the singleton ContextService instance.
func ContextService() primary.ContextService {
	once.Do(initServices)
	return contextService
}

// ConversationService returns the singleton ConversationService instance.
func ConversationService() primary.ConversationService {
	once.Do(initServices)
	return conversationService
}

// LockService returns the singleton LockService instance.
func LockService() primary.LockService {
	once.Do(initServices)
	return lockService
}

// SyncService returns the singleton SyncService instance.
func SyncService() primary.SyncService {
	once.Do(initServices)
	return syncService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Get database connection
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	bindingRepo := sqlite.NewBindingRepository(database)
	chatRepo := sqlite.NewChatRepository(database)
	runRepo := sqlite.NewRunRepository(database)
	messageRepo := sqlite.NewMessageRepository(database)
	outboxRepo := sqlite.NewOutboxRepository(database)

	// Filesystem adapters
	locksDir, err := config.LocksDir()
	if err != nil {
		log.Fatalf("failed to resolve locks directory: %v", err)
	}
	logger := log.New(os.Stderr, "acode ", log.LstdFlags)
	locker, err := filesystem.NewLocker(locksDir, cfg.StaleLockThreshold(), terminal.NewIdentifier(), logger)
	if err != nil {
		log.Fatalf("failed to initialize locker: %v", err)
	}

	homeDir, err := config.HomeDir()
	if err != nil {
		log.Fatalf("failed to resolve acode directory: %v", err)
	}
	publisher := filesystem.NewContextLogPublisher(filepath.Join(homeDir, "context.log"))

	// Remote sync target
	endpoint := cfg.RemoteEndpoint
	if endpoint == "" {
		endpoint = "http://localhost:8787"
	}
	target := remote.NewHTTPTarget(endpoint)

	// Create services (primary ports implementation)
	bindingService = app.NewBindingService(bindingRepo)
	contextService = app.NewContextService(bindingRepo, publisher)
	conversationService = app.NewConversationService(chatRepo, runRepo, messageRepo, bindingRepo, outboxRepo)
	lockService = app.NewLockService(locker)

	maxCount, maxBytes := cfg.BatchLimits()
	syncService = app.NewSyncEngine(outboxRepo, chatRepo, runRepo, messageRepo, target, app.SyncEngineConfig{
		Interval:      cfg.SyncInterval(),
		FetchLimit:    config.DefaultPendingPageSize,
		BatchMaxCount: maxCount,
		BatchMaxBytes: maxBytes,
		MaxRetries:    cfg.MaxRetries(),
		BaseDelay:     cfg.SyncBaseDelay(),
	}, logger)
}

// ChatAdapter returns a new ChatAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ChatAdapter() *cliadapter.ChatAdapter {
	return ChatAdapterWithOutput(os.Stdout)
}

// ChatAdapterWithOutput returns a new ChatAdapter writing to the given output.
func ChatAdapterWithOutput(out io.Writer) *cliadapter.ChatAdapter {
	once.Do(initServices)
	return cliadapter.NewChatAdapter(conversationService, out)
}

// BindingAdapter returns a new BindingAdapter writing to stdout.
func BindingAdapter() *cliadapter.BindingAdapter {
	once.Do(initServices)
	return cliadapter.NewBindingAdapter(bindingService, os.Stdout)
}

// ContextAdapter returns a new ContextAdapter writing to stdout.
func ContextAdapter() *cliadapter.ContextAdapter {
	once.Do(initServices)
	return cliadapter.NewContextAdapter(contextService, os.Stdout)
}

// LockAdapter returns a new LockAdapter writing to stdout.
func LockAdapter() *cliadapter.LockAdapter {
	once.Do(initServices)
	return cliadapter.NewLockAdapter(lockService, os.Stdout)
}

// SyncAdapter returns a new SyncAdapter writing to stdout.
func SyncAdapter() *cliadapter.SyncAdapter {
	once.Do(initServices)
	return cliadapter.NewSyncAdapter(syncService, os.Stdout)
}
