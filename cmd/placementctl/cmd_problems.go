package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	problemstore "github.com/dalemusser/placementhub/internal/app/store/problems"
	"github.com/dalemusser/placementhub/internal/app/system/normalize"
	"github.com/dalemusser/placementhub/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v3"
)

var importProblemsCmd = &cobra.Command{
	Use:   "import-problems <file.yaml>",
	Short: "Insert or update practice problems by slug",
	Long: `Reads a YAML file with a top-level "problems" list. Each problem has
title, slug (derived from the title when blank), difficulty, statement,
tags, samples and tests; samples and tests are lists of {input, output}.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportProblems,
}

func init() {
	importProblemsCmd.Flags().Bool("dry-run", false, "validate the file without writing")
}

type problemFile struct {
	Problems []models.Problem `yaml:"problems"`
}

// parseProblems decodes and validates an import file. Errors name the
// offending entry by position.
func parseProblems(data []byte) ([]models.Problem, error) {
	var f problemFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(f.Problems) == 0 {
		return nil, errors.New("no problems in file")
	}

	seen := make(map[string]int, len(f.Problems))
	var errs []error
	for i := range f.Problems {
		p := &f.Problems[i]
		p.Title = strings.TrimSpace(p.Title)
		p.Slug = normalize.Slug(p.Slug)
		if p.Slug == "" {
			p.Slug = normalize.Slug(p.Title)
		}
		p.Difficulty = strings.ToLower(strings.TrimSpace(p.Difficulty))
		if p.Difficulty == "" {
			p.Difficulty = models.DifficultyEasy
		}
		p.Tags = normalize.Tags(p.Tags)

		switch {
		case p.Title == "":
			errs = append(errs, fmt.Errorf("problem %d: title is required", i+1))
		case strings.TrimSpace(p.Statement) == "":
			errs = append(errs, fmt.Errorf("problem %d (%s): statement is required", i+1, p.Slug))
		case !models.ValidDifficulty(p.Difficulty):
			errs = append(errs, fmt.Errorf("problem %d (%s): unknown difficulty %q", i+1, p.Slug, p.Difficulty))
		case len(p.Samples)+len(p.Tests) == 0:
			errs = append(errs, fmt.Errorf("problem %d (%s): needs at least one sample or test", i+1, p.Slug))
		}
		if prev, dup := seen[p.Slug]; dup {
			errs = append(errs, fmt.Errorf("problem %d: slug %q already used by problem %d", i+1, p.Slug, prev))
		}
		seen[p.Slug] = i + 1
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Problems, nil
}

func runImportProblems(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	problems, err := parseProblems(data)
	if err != nil {
		return err
	}
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		fmt.Fprintf(cmd.OutOrStdout(), "%d problems OK\n", len(problems))
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()
	return withDB(ctx, func(ctx context.Context, db *mongo.Database) error {
		store := problemstore.New(db)
		var created, updated int
		for _, p := range problems {
			_, isNew, err := store.Upsert(ctx, p)
			if err != nil {
				return fmt.Errorf("%s: %w", p.Slug, err)
			}
			if isNew {
				created++
			} else {
				updated++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d problems (%d new, %d updated)\n", len(problems), created, updated)
		return nil
	})
}
