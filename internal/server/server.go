package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rabbitmq/amqp091-go"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	mid "github.com/inquest-labs/inquest/backend/internal/server/middleware"
	"github.com/inquest-labs/inquest/backend/internal/util"
	"github.com/inquest-labs/inquest/backend/pkg/ai"
	oai "github.com/inquest-labs/inquest/backend/pkg/ai/ollama"
	gai "github.com/inquest-labs/inquest/backend/pkg/ai/openai"
	"github.com/inquest-labs/inquest/backend/pkg/audit"
	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/cypher"
	"github.com/inquest-labs/inquest/backend/pkg/logger"
	"github.com/inquest-labs/inquest/backend/pkg/policy"
	"github.com/inquest-labs/inquest/backend/pkg/rag"
	storepgx "github.com/inquest-labs/inquest/backend/pkg/store/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()
	conn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	que := initQueue()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	sink, err := audit.NewAMQPSink(ch, util.GetEnvString("AUDIT_QUEUE", audit.DefaultQueue))
	if err != nil {
		logger.Fatal("Failed to declare audit queue", "err", err)
	}

	modelClient := newModelClient()

	limits := common.RetrievalLimits{
		MaxNodes:            int(util.GetEnvNumeric("MAX_NODES", 50)),
		MaxDepth:            int(util.GetEnvNumeric("MAX_DEPTH", 4)),
		MaxEvidenceSnippets: int(util.GetEnvNumeric("MAX_EVIDENCE_SNIPPETS", 20)),
	}

	graphRepo := storepgx.NewGraphStore(conn, util.GetEnvString("GRAPH_NAME", "casegraph"))
	evidenceRepo := storepgx.NewEvidenceStore(conn)

	pipeline := rag.NewPipeline(rag.PipelineParams{
		Generator: cypher.NewGenerator(cypher.DefaultTemplates(), modelClient, limits.MaxDepth),
		Retriever: rag.NewRetriever(graphRepo, evidenceRepo),
		Guard:     policy.NewGuard(policy.NewClearanceEngine()),
		Model:     modelClient,
		Sink:      sink,

		Limits:              limits,
		EvidenceTokenBudget: int(util.GetEnvNumeric("EVIDENCE_TOKEN_BUDGET", 8000)),
		AnswerOptions:       answerOptions(),
	})

	app := &mid.App{
		DBConn:   conn,
		Queue:    ch,
		Pipeline: pipeline,
		Schema: common.SchemaContext{
			NodeTypes:     splitEnvList("SCHEMA_NODE_TYPES", "Case,Person,Organization,Location,Account,Event,Evidence"),
			EdgeTypes:     splitEnvList("SCHEMA_EDGE_TYPES", "INVOLVES,KNOWS,OWNS,LOCATED_AT,TRANSFERRED_TO,SUPPORTED_BY"),
			SchemaSummary: util.GetEnvString("SCHEMA_SUMMARY", defaultSchemaSummary),
		},
		RequestTimeout: time.Duration(util.GetEnvNumeric("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

func initQueue() *amqp091.Connection {
	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		util.GetEnv("RABBITMQ_USER"),
		util.GetEnv("RABBITMQ_PASSWORD"),
		util.GetEnv("RABBITMQ_HOST"),
		util.GetEnv("RABBITMQ_PORT"),
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

func newModelClient() ai.ModelClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewCaseOllamaClient(oai.NewCaseOllamaClientParams{
			AnswerModel:    util.GetEnv("AI_ANSWER_MODEL"),
			QueryModel:     util.GetEnv("AI_QUERY_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewCaseOpenAIClient(gai.NewCaseOpenAIClientParams{
			AnswerModel:    util.GetEnv("AI_ANSWER_MODEL"),
			QueryModel:     util.GetEnv("AI_QUERY_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
		})
	}
}

// answerOptions builds the per-call generation options for answer drafting
// from the environment.
func answerOptions() []ai.GenerateOption {
	var opts []ai.GenerateOption

	if thinking := util.GetEnv("AI_THINKING"); thinking != "" {
		opts = append(opts, ai.WithThinking(thinking))
	}
	if temp := util.GetEnvNumeric("AI_TEMPERATURE", -1); temp >= 0 {
		opts = append(opts, ai.WithTemperature(temp))
	}

	return opts
}

func splitEnvList(key, defaultValue string) []string {
	raw := util.GetEnvString(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

const defaultSchemaSummary = `Nodes: Case, Person, Organization, Location, Account, Event, Evidence.
Edges: (Case)-[:INVOLVES]->(any), (Person)-[:KNOWS]->(Person), (Person|Organization)-[:OWNS]->(Account),
(any)-[:LOCATED_AT]->(Location), (Account)-[:TRANSFERRED_TO]->(Account), (any)-[:SUPPORTED_BY]->(Evidence).
Every node carries id, name, created_at; events carry occurred_at.`
