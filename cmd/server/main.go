// Command server starts the execution core's HTTP API server.
//
// Usage:
//
//	server [flags]
//
// Flags:
//
//	-addr string
//	    Server address (default ":8080")
//	-read-timeout duration
//	    HTTP read timeout (default 30s)
//	-write-timeout duration
//	    HTTP write timeout (default 30s)
//	-max-execution-time duration
//	    Maximum diagram execution time (default 5m)
//	-max-node-executions int
//	    Maximum node executions per diagram run (default unlimited)
//	-diagram-db string
//	    Path to a SQLite file backing saved diagrams (default in-memory)
//	-file-root string
//	    Root directory file nodes are rooted to (default ./data)
//
// Setting REDIS_ADDR also fans out every execution's events over Redis
// pub/sub on the "dipeo:events" channel, for a remote transport to
// subscribe to without sharing process memory with the engine.
//
// Example:
//
//	# Start server on default port
//	server
//
//	# Start server on custom port with strict limits
//	server -addr :9090 -max-execution-time 30s -max-node-executions 1000
//
// The server exposes the following endpoints:
//
//	POST   /api/v1/diagram/execute         - Execute a diagram inline
//	POST   /api/v1/diagram/validate        - Validate a diagram
//	POST   /api/v1/diagram/save            - Save a named diagram
//	GET    /api/v1/diagram/list            - List saved diagram names
//	GET    /api/v1/diagram/load/{name}     - Load a diagram by name
//	DELETE /api/v1/diagram/delete/{name}   - Delete a diagram by name
//	POST   /api/v1/diagram/execute/{name}  - Execute a saved diagram by name
//	GET    /health                         - Health check
//	GET    /health/live                    - Liveness probe
//	GET    /health/ready                   - Readiness probe
//	GET    /metrics                        - Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dipeo/execengine/pkg/config"
	"github.com/dipeo/execengine/pkg/conversation"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/httpclient"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/ports/apikey"
	"github.com/dipeo/execengine/pkg/ports/fileio"
	"github.com/dipeo/execengine/pkg/ports/integratedapi"
	"github.com/dipeo/execengine/pkg/ports/interactive"
	"github.com/dipeo/execengine/pkg/ports/llm"
	"github.com/dipeo/execengine/pkg/ports/repository"
	"github.com/dipeo/execengine/pkg/ports/router"
	"github.com/dipeo/execengine/pkg/ports/sandbox"
	"github.com/dipeo/execengine/pkg/server"
	"github.com/redis/go-redis/v9"
)

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	maxExecutionTime := flag.Duration("max-execution-time", 5*time.Minute, "Maximum diagram execution time")
	maxNodeExecutions := flag.Int("max-node-executions", 0, "Maximum node executions per diagram run (0 = unlimited)")
	maxHTTPCalls := flag.Int("max-http-calls", 100, "Maximum HTTP calls per execution")
	maxIterations := flag.Int("max-iterations", 10000, "Default max iterations for loops")
	diagramDB := flag.String("diagram-db", "", "Path to a SQLite file backing saved diagrams (empty = in-memory)")
	fileRoot := flag.String("file-root", "./data", "Root directory file nodes are rooted to")

	flag.Parse()

	serverConfig := server.DefaultConfig()
	serverConfig.Address = *addr
	serverConfig.ReadTimeout = *readTimeout
	serverConfig.WriteTimeout = *writeTimeout

	engineConfig := config.Production()
	engineConfig.AllowHTTP = true
	engineConfig.MaxExecutionTime = *maxExecutionTime
	engineConfig.MaxNodeExecutions = *maxNodeExecutions
	engineConfig.MaxHTTPCallsPerExec = *maxHTTPCalls
	engineConfig.MaxIterations = *maxIterations

	deps, err := buildDeps(*engineConfig, *diagramDB, *fileRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build server dependencies: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(serverConfig, *engineConfig, deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("Starting execution core server on %s\n", *addr)
		fmt.Printf("Health check:     http://localhost%s/health\n", *addr)
		fmt.Printf("Liveness probe:   http://localhost%s/health/live\n", *addr)
		fmt.Printf("Readiness probe:  http://localhost%s/health/ready\n", *addr)
		fmt.Printf("Metrics:          http://localhost%s/metrics\n", *addr)
		fmt.Printf("API endpoint:     http://localhost%s/api/v1/diagram/execute\n", *addr)
		fmt.Println("\nPress Ctrl+C to shutdown")

		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		fmt.Println("Shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Server stopped")
	}
}

// buildDeps assembles the port adapters and handler registry the server
// needs to run diagrams. LLM credentials come from the environment (or a
// .env file); the diagram store is SQLite when diagramDB names a file and
// in-memory otherwise.
func buildDeps(engineConfig config.Config, diagramDB, fileRoot string) (server.Deps, error) {
	keys, err := apikey.NewEnvStore(".env")
	if err != nil {
		return server.Deps{}, fmt.Errorf("load api keys: %w", err)
	}

	llmRouter := llm.NewRouter()
	if apiKey, err := keys.Get(context.Background(), "openai"); err == nil {
		client, err := llm.NewOpenAIClientFromAPIKey(apiKey, "gpt-4o")
		if err != nil {
			return server.Deps{}, fmt.Errorf("configure openai client: %w", err)
		}
		llmRouter = llmRouter.WithRoute("gpt-", client).WithFallback(client)
	}
	if apiKey, err := keys.Get(context.Background(), "anthropic"); err == nil {
		client, err := llm.NewAnthropicClientFromAPIKey(apiKey, "claude-3-5-sonnet-latest", 4096)
		if err != nil {
			return server.Deps{}, fmt.Errorf("configure anthropic client: %w", err)
		}
		llmRouter = llmRouter.WithRoute("claude-", client).WithFallback(client)
	}

	files, err := fileio.New(fileRoot)
	if err != nil {
		return server.Deps{}, fmt.Errorf("open file root %q: %w", fileRoot, err)
	}

	builder := httpclient.NewBuilder(engineConfig)
	httpPort, err := httpclient.NewPortAdapter(builder)
	if err != nil {
		return server.Deps{}, fmt.Errorf("build http port: %w", err)
	}

	integrated, err := integratedapi.New(builder)
	if err != nil {
		return server.Deps{}, fmt.Errorf("build integrated api port: %w", err)
	}

	var diagramRepo ports.DiagramRepositoryPort
	if diagramDB != "" {
		store, err := repository.OpenSQLite(diagramDB)
		if err != nil {
			return server.Deps{}, fmt.Errorf("open diagram store %q: %w", diagramDB, err)
		}
		diagramRepo = store
	} else {
		diagramRepo = repository.NewMemory()
	}

	var streamingRouter ports.MessageRouterPort
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		streamingRouter = router.NewRedis(redis.NewClient(&redis.Options{Addr: addr}))
	}

	return server.Deps{
		Registry: handlers.NewDefaultRegistry(),
		Ports: handlers.PortBundle{
			LLM:         llmRouter,
			Sandbox:     &sandbox.Fake{Results: map[string]ports.SandboxResult{}},
			Files:       files,
			Interactive: interactive.NewChannel(16),
			ApiKeys:     keys,
			Http:        httpPort,
			Integrated:  integrated,
		},
		Conversations:   conversation.NewStore(),
		DiagramRepo:     diagramRepo,
		StreamingRouter: streamingRouter,
	}, nil
}
