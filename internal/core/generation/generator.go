package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/agenthands/personapanel/internal/core/common"
	"github.com/agenthands/personapanel/internal/core/model"
	"github.com/agenthands/personapanel/internal/llm"
)

// Generator asks the LLM for entity instances that fit an entity type.
type Generator struct {
	LLM    llm.LLMClient
	Prompt string
	Logger *zap.Logger
}

func NewGenerator(llmClient llm.LLMClient, prompt string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		LLM:    llmClient,
		Prompt: prompt,
		Logger: logger,
	}
}

func (g *Generator) BuildPrompt(et *model.EntityType, instructions string) string {
	var dims strings.Builder
	for i := range et.Dimensions {
		dims.WriteString(et.Dimensions[i].Describe())
		dims.WriteByte('\n')
	}
	if instructions == "" {
		instructions = "none"
	}
	return fmt.Sprintf(g.Prompt, et.Name, et.Description, dims.String(), instructions)
}

// GenerateEntity returns an unsaved entity of type et. Attributes that match
// no dimension are dropped; values that cannot be coerced fail the call.
func (g *Generator) GenerateEntity(ctx context.Context, et *model.EntityType, instructions string) (*model.Entity, error) {
	if g.LLM == nil {
		return nil, model.ErrLLMUnavailable
	}

	response, err := g.LLM.Generate(ctx, g.BuildPrompt(et, instructions))
	if err != nil {
		return nil, fmt.Errorf("failed to generate entity: %w", err)
	}

	generated, err := common.ParseJSON[model.GeneratedEntity](response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated entity: %w", err)
	}
	name := strings.TrimSpace(generated.Name)
	if name == "" {
		return nil, fmt.Errorf("generated entity has no name")
	}

	attrs, err := et.CoerceAttributes(generated.Attributes, false)
	if err != nil {
		return nil, fmt.Errorf("generated entity %q: %w", name, err)
	}
	if missing := len(et.Dimensions) - len(attrs); missing > 0 {
		g.Logger.Debug("Generated entity is missing attributes",
			zap.String("entity_type", et.Name),
			zap.String("name", name),
			zap.Int("missing", missing))
	}

	return &model.Entity{
		EntityTypeID: et.ID,
		Name:         name,
		Description:  strings.TrimSpace(generated.Description),
		Attributes:   attrs,
	}, nil
}

// GenerateEntities runs count generations with at most concurrency in
// flight. Results come back in completion order. Individual failures are
// returned in failures; err is non-nil only when nothing was generated.
func (g *Generator) GenerateEntities(ctx context.Context, et *model.EntityType, count int, instructions string, concurrency int) (entities []model.Entity, failures []error, err error) {
	if g.LLM == nil {
		return nil, nil, model.ErrLLMUnavailable
	}
	if count < 1 {
		return nil, nil, fmt.Errorf("%w: count must be at least 1", model.ErrInvalid)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	sem := semaphore.NewWeighted(int64(concurrency))
	eg, egCtx := errgroup.WithContext(ctx)

	for i := 0; i < count; i++ {
		if err := sem.Acquire(egCtx, 1); err != nil {
			mu.Lock()
			for j := i; j < count; j++ {
				failures = append(failures, err)
			}
			mu.Unlock()
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			e, genErr := g.GenerateEntity(egCtx, et, instructions)

			mu.Lock()
			defer mu.Unlock()
			if genErr != nil {
				g.Logger.Warn("Entity generation failed", zap.String("entity_type", et.Name), zap.Error(genErr))
				failures = append(failures, genErr)
				return nil
			}
			entities = append(entities, *e)
			return nil
		})
	}
	_ = eg.Wait()

	if len(entities) == 0 {
		// flattened: bad LLM output must not surface as ErrInvalid
		return nil, failures, fmt.Errorf("%w: all %d generations failed: %s", model.ErrGenerationFailed, count, errors.Join(failures...))
	}
	return entities, failures, nil
}
