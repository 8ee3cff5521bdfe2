package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"recipebook/application/commands"
	"recipebook/application/queries"
	"recipebook/infrastructure/config"
	"recipebook/infrastructure/di"
	"recipebook/pkg/auth"
)

// recipeFile is the YAML document accepted by "recipectl create"
type recipeFile struct {
	Title        string                     `yaml:"title"`
	Description  string                     `yaml:"description"`
	ImageURL     string                     `yaml:"imageUrl"`
	PrepTime     int                        `yaml:"prepTime"`
	CookTime     int                        `yaml:"cookTime"`
	Servings     int                        `yaml:"servings"`
	Difficulty   string                     `yaml:"difficulty"`
	Categories   []string                   `yaml:"categories"`
	Ingredients  []commands.IngredientInput `yaml:"ingredients"`
	Instructions []string                   `yaml:"instructions"`
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the recipe categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if a.output == "json" {
				return a.printJSON(map[string]interface{}{"categories": c.DomainConfig.Categories})
			}
			for _, category := range c.DomainConfig.Categories {
				fmt.Fprintln(a.out, category)
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var q queries.ListRecipesQuery
	var mine bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recipes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if mine {
				q.OwnerID = a.userID
			}
			raw, err := c.QueryBus.Ask(cmd.Context(), q)
			if err != nil {
				return err
			}
			result, ok := raw.(*queries.ListRecipesResult)
			if !ok {
				return fmt.Errorf("unexpected result type %T", raw)
			}
			if a.output == "json" {
				return a.printJSON(result)
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tDIFFICULTY\tTIME\tCATEGORIES")
			for _, r := range result.Recipes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%dm\t%s\n", r.ID, r.Title, r.Difficulty, r.TotalTime, strings.Join(r.Categories, ","))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if result.HasMore {
				fmt.Fprintf(a.out, "more results after offset %d\n", result.Offset+result.Count)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.Search, "search", "s", "", "match title or description")
	cmd.Flags().StringVarP(&q.Category, "category", "c", "", "only recipes in this category")
	cmd.Flags().IntVar(&q.Limit, "limit", 0, "page size, 0 for the server default")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&mine, "mine", false, "only recipes owned by --user")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <recipe-id>",
		Short: "Show a recipe with its ingredients and steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			raw, err := c.QueryBus.Ask(cmd.Context(), queries.GetRecipeQuery{RecipeID: args[0]})
			if err != nil {
				return err
			}
			r, ok := raw.(*queries.GetRecipeResult)
			if !ok {
				return fmt.Errorf("unexpected result type %T", raw)
			}
			if a.output == "json" {
				return a.printJSON(r)
			}

			fmt.Fprintf(a.out, "%s\n%s\n\n", r.Title, r.Description)
			fmt.Fprintf(a.out, "Difficulty: %s  Servings: %d  Prep: %dm  Cook: %dm\n", r.Difficulty, r.Servings, r.PrepTime, r.CookTime)
			fmt.Fprintf(a.out, "Categories: %s\n\nIngredients:\n", strings.Join(r.Categories, ", "))
			for _, in := range r.Ingredients {
				fmt.Fprintf(a.out, "  - %s %s\n", in.Amount, in.Name)
			}
			fmt.Fprintln(a.out, "\nInstructions:")
			for _, step := range r.Instructions {
				fmt.Fprintf(a.out, "  %d. %s\n", step.Sequence, step.Step)
			}
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create -f recipe.yaml",
		Short: "Create a recipe from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			var rf recipeFile
			if err := yaml.Unmarshal(data, &rf); err != nil {
				return fmt.Errorf("failed to parse %s: %w", file, err)
			}

			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			id := uuid.New().String()
			create := commands.CreateRecipeCommand{
				RecipeID:     id,
				UserID:       a.userID,
				Title:        rf.Title,
				Description:  rf.Description,
				ImageURL:     rf.ImageURL,
				PrepTime:     rf.PrepTime,
				CookTime:     rf.CookTime,
				Servings:     rf.Servings,
				Difficulty:   rf.Difficulty,
				Ingredients:  rf.Ingredients,
				Instructions: rf.Instructions,
				Categories:   rf.Categories,
			}.WithValidator(c.Validator)
			if err := c.CommandBus.Send(cmd.Context(), create); err != nil {
				return err
			}

			if a.output == "json" {
				return a.printJSON(map[string]string{"id": id})
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "recipe YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <recipe-id>",
		Short: "Delete a recipe owned by --user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.CommandBus.Send(cmd.Context(), commands.DeleteRecipeCommand{RecipeID: args[0], UserID: a.userID}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", args[0])
			return nil
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		email, name, keyFile string
		roles                []string
		ttl                  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cfg == nil {
				loaded, err := config.LoadConfig()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				cfg = loaded
			}

			genCfg := auth.JWTGeneratorConfig{
				SigningMethod: cfg.JWTSigningMethod,
				SecretKey:     cfg.JWTSecret,
				Issuer:        cfg.JWTIssuer,
				Audience:      cfg.JWTAudience,
				ExpiryTime:    ttl,
			}
			if genCfg.SecretKey == "" && cfg.IsDevelopment() {
				genCfg.SecretKey = di.DevelopmentJWTSecret
			}
			if keyFile != "" {
				pem, err := os.ReadFile(keyFile)
				if err != nil {
					return fmt.Errorf("failed to read private key: %w", err)
				}
				genCfg.PrivateKey = string(pem)
			} else if cfg.JWTSigningMethod == "RS256" {
				return errors.New("--private-key is required for RS256")
			}

			gen, err := auth.NewJWTGenerator(genCfg)
			if err != nil {
				return err
			}
			token, err := gen.GenerateToken(a.userID, email, name, roles)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(a.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "name claim")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "role claims")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&keyFile, "private-key", "", "PEM private key for RS256")
	return cmd
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
