// Package textract adapts AWS Textract to the table-path analysis service.
package textract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awstextract "github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/statement-ledger/internal/domain/extraction/tablegraph"
)

// API is the slice of the Textract client used here.
type API interface {
	AnalyzeDocument(ctx context.Context, params *awstextract.AnalyzeDocumentInput, optFns ...func(*awstextract.Options)) (*awstextract.AnalyzeDocumentOutput, error)
}

// Client submits documents to Textract with TABLES and FORMS analysis.
// Calls are throttled to stay under the account's request quota.
type Client struct {
	api     API
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New loads the default AWS configuration for region. requestsPerSecond
// bounds the call rate; zero or less disables throttling.
func New(ctx context.Context, region string, requestsPerSecond float64, logger *slog.Logger) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewWithAPI(awstextract.NewFromConfig(cfg), requestsPerSecond, logger), nil
}

// NewWithAPI wraps an existing Textract API implementation.
func NewWithAPI(api API, requestsPerSecond float64, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Analyze implements tablegraph.AnalysisService.
func (c *Client) Analyze(ctx context.Context, document []byte) (*tablegraph.Graph, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		// Wait fails early, before ctx expires, when the next token lies
		// past the deadline.
		if _, ok := ctx.Deadline(); ok && !errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w: %w", context.DeadlineExceeded, err)
		}
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	started := time.Now()
	out, err := c.api.AnalyzeDocument(ctx, &awstextract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: document},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables, types.FeatureTypeForms},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}

	blocks := convertBlocks(out.Blocks)
	c.logger.Debug("textract analysis finished",
		"blocks", len(blocks),
		"bytes", len(document),
		"duration", time.Since(started))
	return tablegraph.NewGraph(blocks), nil
}

func convertBlocks(in []types.Block) []tablegraph.Block {
	out := make([]tablegraph.Block, 0, len(in))
	for _, b := range in {
		block := tablegraph.Block{
			ID:          aws.ToString(b.Id),
			Type:        tablegraph.BlockType(b.BlockType),
			Text:        aws.ToString(b.Text),
			Confidence:  float64(aws.ToFloat32(b.Confidence)),
			RowIndex:    int(aws.ToInt32(b.RowIndex)),
			ColumnIndex: int(aws.ToInt32(b.ColumnIndex)),
		}
		for _, r := range b.Relationships {
			block.Relationships = append(block.Relationships, tablegraph.Relationship{
				Type: tablegraph.RelationType(r.Type),
				IDs:  r.Ids,
			})
		}
		for _, et := range b.EntityTypes {
			block.EntityTypes = append(block.EntityTypes, string(et))
		}
		out = append(out, block)
	}
	return out
}
