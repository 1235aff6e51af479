package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	apimod "github.com/example/task-service/modules/api"
	auditmod "github.com/example/task-service/modules/audit"
	cachemod "github.com/example/task-service/modules/cache"
	taskmod "github.com/example/task-service/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	dbPath := getEnv("DB_PATH", "./tasks.db")
	httpPort := getEnvInt("HTTP_PORT", 3000)
	strictErrors := getEnvBool("STRICT_ERRORS", false)
	cacheEnabled := getEnvBool("CACHE_ENABLED", false)
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)

	log.Println("=== Task Service ===")
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Strict errors: %v", strictErrors)
	if cacheEnabled {
		log.Printf("Cache: Redis at %s (TTL %s)", redisAddr, cacheTTL)
	} else {
		log.Println("Cache: disabled")
	}

	// Create modules
	taskModule := taskmod.NewModule(dbPath)
	apiModule := apimod.NewModule(httpPort, strictErrors)
	auditModule := auditmod.NewModule()

	var cacheModule *cachemod.Module
	if cacheEnabled {
		cacheModule = cachemod.NewModule(redisAddr, "task:", cacheTTL)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// Register modules. The cache must start before the task module so its
	// client exists when the service is built.
	if cacheModule != nil {
		app.Register(cacheModule)
	}
	app.Register(auditModule)
	app.Register(taskModule)
	app.Register(apiModule)

	// Wire direct dependencies before start; sentinel error identity must
	// survive the api -> task boundary, so no request-reply hop is used.
	apiModule.SetTaskModule(taskModule)
	apiModule.SetAuditModule(auditModule)
	if cacheModule != nil {
		taskModule.SetCacheModule(cacheModule)
		apiModule.SetCacheModule(cacheModule)
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	printStartupInfo(httpPort)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("  GET     /tasks      - List all tasks")
	log.Println("  POST    /tasks      - Create a task (status starts at PENDIENTE)")
	log.Println("  OPTIONS /tasks      - Allowed methods")
	log.Println("  GET     /tasks/:id  - Get a task by id")
	log.Println("  PUT     /tasks/:id  - Update status and/or description")
	log.Println("  DELETE  /tasks/:id  - Delete a task")
	log.Println("  OPTIONS /tasks/:id  - Allowed methods")
	log.Println("  GET     /health     - Health check")
	log.Println("  GET     /audit/trail - Recorded lifecycle events")
	log.Println("")
	log.Println("Status lifecycle: PENDIENTE -> TERMINADO | CANCELADO (terminal)")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool returns environment variable as bool or default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
