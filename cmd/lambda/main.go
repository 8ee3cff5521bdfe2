package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"

	"recipebook/infrastructure/config"
	"recipebook/infrastructure/di"
	"recipebook/interfaces/http/rest"
	"recipebook/interfaces/http/rest/middleware"
)

var (
	chiLambda     *chiadapter.ChiLambdaV2
	container     *di.Container
	coldStart     = true
	coldStartTime time.Time
)

// identityHeaders are set only from authorizer claims, never from the client
var identityHeaders = []string{
	middleware.HeaderUserID,
	middleware.HeaderUserEmail,
	middleware.HeaderUserName,
	middleware.HeaderUserRoles,
}

func setup() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true

	// The container lives for the whole execution environment; its cleanup never runs.
	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	chiLambda = chiadapter.NewV2(rest.NewRouter(container).Setup())

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
		zap.String("storage", cfg.StorageBackend),
	)
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	applyAuthorizerIdentity(&req)

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	fields := []zap.Field{
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status_code", resp.StatusCode),
		zap.String("stage", req.RequestContext.Stage),
	}
	if err != nil || resp.StatusCode >= http.StatusInternalServerError {
		container.Logger.Error("Lambda error response", append(fields, zap.Error(err))...)
	} else {
		container.Logger.Debug("Lambda response", fields...)
	}
	return resp, err
}

// applyAuthorizerIdentity drops client-supplied identity headers and, when the
// API Gateway JWT authorizer ran, forwards its verified claims as headers
func applyAuthorizerIdentity(req *events.APIGatewayV2HTTPRequest) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	for key := range req.Headers {
		for _, h := range identityHeaders {
			if strings.EqualFold(key, h) {
				delete(req.Headers, key)
			}
		}
	}

	authorizer := req.RequestContext.Authorizer
	if authorizer == nil || authorizer.JWT == nil {
		return
	}
	claims := authorizer.JWT.Claims
	sub := claims["sub"]
	if sub == "" {
		return
	}
	req.Headers[middleware.HeaderUserID] = sub
	if email := claims["email"]; email != "" {
		req.Headers[middleware.HeaderUserEmail] = email
	}
	if name := claims["name"]; name != "" {
		req.Headers[middleware.HeaderUserName] = name
	}
	if roles := parseClaimList(claims["roles"]); len(roles) > 0 {
		req.Headers[middleware.HeaderUserRoles] = strings.Join(roles, ",")
	}
}

// parseClaimList reads array claims, which API Gateway flattens to "[a b]"
func parseClaimList(raw string) []string {
	raw = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(raw), "["), "]")
	return strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' })
}

func main() {
	setup()
	lambda.Start(Handler)
}
