package bundle

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"CraftMateAI/app/assistant/internal/agent/catalog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/zeromicro/go-zero/core/logx"
)

// NotFoundError reports an unresolved project name. It travels back to the
// model as tool output data, not as a process fault.
type NotFoundError struct {
	Project string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Project '%s' not found.", e.Project)
}

// CategoryUnavailableError reports a required category with no product at
// any velocity tier.
type CategoryUnavailableError struct {
	Category string
}

func (e *CategoryUnavailableError) Error() string {
	return fmt.Sprintf("Could not find a suitable product for category '%s'", e.Category)
}

// Item is a bundled product. CatchyDescription is set only for low-velocity
// picks, generated per request.
type Item struct {
	catalog.Product
	CatchyDescription string `json:"catchy_description,omitempty"`
}

// Result is a per-request copy of the project with its assembled bundle.
// The catalog's stored project is never mutated.
type Result struct {
	ProjectName string               `json:"project_name"`
	Name        string               `json:"name"`
	Trend       string               `json:"trend"`
	Ingredients []catalog.Ingredient `json:"ingredients"`
	Steps       []string             `json:"steps"`
	Bundle      []Item               `json:"bundle"`
}

type Composer struct {
	log   logx.Logger
	store *catalog.Store
	model model.BaseChatModel
	rng   *rand.Rand
}

// NewComposer builds a composer over the catalog. rng may be nil; pass a
// seeded source in tests for deterministic selection.
func NewComposer(log logx.Logger, store *catalog.Store, chatModel model.BaseChatModel, rng *rand.Rand) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Composer{
		log:   log,
		store: store,
		model: chatModel,
		rng:   rng,
	}
}

// Compose assembles a product bundle for the named project: one product per
// ingredient slot, at least one low-velocity item when any required category
// stocks one, fast movers preferred for the rest. Low-velocity picks gain a
// generated promotional phrase and the project steps are rewritten around
// the chosen products. Model failures during enrichment propagate as-is.
func (c *Composer) Compose(ctx context.Context, projectName string) (*Result, error) {
	project, ok := c.store.ProjectByName(projectName)
	if !ok {
		return nil, &NotFoundError{Project: strings.TrimSpace(projectName)}
	}

	// Shuffled copy so low-velocity placement carries no positional bias.
	ingredients := make([]catalog.Ingredient, len(project.Ingredients))
	copy(ingredients, project.Ingredients)
	c.rng.Shuffle(len(ingredients), func(i, j int) {
		ingredients[i], ingredients[j] = ingredients[j], ingredients[i]
	})

	items := make([]Item, 0, len(ingredients))
	used := make(map[string]struct{}, len(ingredients))

	// Guarantee pass: place one low-velocity product if any required
	// category stocks one. Best effort, no failure on a miss.
	lowPlaced := false
	for i, ingredient := range ingredients {
		options := c.store.ProductsByCategoryVelocity(ingredient.Category, catalog.VelocityLow, nil)
		if len(options) == 0 {
			continue
		}
		chosen := options[c.rng.Intn(len(options))]
		items = append(items, Item{Product: chosen})
		used[chosen.SKU] = struct{}{}
		ingredients = append(ingredients[:i], ingredients[i+1:]...)
		lowPlaced = true
		break
	}
	if !lowPlaced {
		c.log.Infof("no low-velocity option for project %q, skipping guarantee pass", project.Name)
	}

	// Fill pass: fast movers first, unused SKUs preferred, duplicates only
	// as a last resort when the category is scarce.
	for _, ingredient := range ingredients {
		chosen, err := c.pickForCategory(ingredient.Category, used)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{Product: chosen})
		used[chosen.SKU] = struct{}{}
	}

	for i := range items {
		if items[i].Velocity != catalog.VelocityLow {
			continue
		}
		phrase, err := c.catchyPhrase(ctx, project.Name, items[i].Name)
		if err != nil {
			return nil, err
		}
		items[i].CatchyDescription = phrase
	}

	steps := project.Steps
	if len(steps) > 0 {
		refined, err := c.refineSteps(ctx, project, items)
		if err != nil {
			return nil, err
		}
		steps = refined
	}

	c.log.Infof("created bundle for %q with %d items", project.Name, len(items))
	return &Result{
		ProjectName: project.Name,
		Name:        project.Name,
		Trend:       project.Trend,
		Ingredients: project.Ingredients,
		Steps:       steps,
		Bundle:      items,
	}, nil
}

func (c *Composer) pickForCategory(category string, used map[string]struct{}) (catalog.Product, error) {
	for _, velocity := range []string{catalog.VelocityHigh, catalog.VelocityMedium, catalog.VelocityLow} {
		options := c.store.ProductsByCategoryVelocity(category, velocity, used)
		if len(options) > 0 {
			return options[c.rng.Intn(len(options))], nil
		}
	}
	for _, velocity := range []string{catalog.VelocityHigh, catalog.VelocityMedium, catalog.VelocityLow} {
		options := c.store.ProductsByCategoryVelocity(category, velocity, nil)
		if len(options) > 0 {
			return options[c.rng.Intn(len(options))], nil
		}
	}
	return catalog.Product{}, &CategoryUnavailableError{Category: category}
}

func (c *Composer) catchyPhrase(ctx context.Context, projectName, productName string) (string, error) {
	if c.model == nil {
		return "", fmt.Errorf("chat model unavailable")
	}

	prompt := fmt.Sprintf("The project is '%s'. The product is '%s'. Write a short, catchy phrase (max 15 words) to highlight why this product is a great addition to the project, making it more appealing to a customer. For example, for a red ribbon, you could say 'adds a pop of vibrant color to your creation!'", projectName, productName)

	start := time.Now()
	out, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	c.log.Infof("catchy phrase for %q took %s", productName, time.Since(start))
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("model returned empty message")
	}
	return strings.ReplaceAll(strings.TrimSpace(out.Content), `"`, ""), nil
}

func (c *Composer) refineSteps(ctx context.Context, project catalog.Project, items []Item) ([]string, error) {
	if c.model == nil {
		return nil, fmt.Errorf("chat model unavailable")
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, fmt.Sprintf("'%s'", item.Name))
	}

	prompt := fmt.Sprintf("You are a helpful assistant for a craft store. Your task is to refine a generic list of project steps to make them more specific and engaging based on the actual products selected for the project bundle. Project: '%s'. Bundle Items: %s.\n\nGiven these items, refine the following steps. Rewrite them to be more inspiring and mention the specific products where appropriate. Keep the same number of steps. Do not include any introductory text like 'Refined Steps:'. Just provide the numbered list of steps.\n\nOriginal Steps:\n%s\n\nRefined Steps:",
		project.Name, strings.Join(names, ", "), strings.Join(project.Steps, "\n"))

	start := time.Now()
	out, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	c.log.Infof("step refinement for %q took %s", project.Name, time.Since(start))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("model returned empty message")
	}

	refined := make([]string, 0, len(project.Steps))
	for _, line := range strings.Split(strings.TrimSpace(out.Content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.ReplaceAll(line, "**", "")
		if dot := strings.Index(line, "."); dot > 0 && isDigits(line[:dot]) {
			line = strings.TrimSpace(line[dot+1:])
		}
		refined = append(refined, line)
	}
	return refined, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
