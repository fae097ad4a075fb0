package planner

import (
	"path/filepath"
	"testing"

	"github.com/kingrea/eventplanner/internal/config"
	"github.com/kingrea/eventplanner/internal/crew"
	"github.com/kingrea/eventplanner/internal/generator"
	"github.com/kingrea/eventplanner/internal/logging"
)

func TestNewRegistryKnowsBuiltInGenerators(t *testing.T) {
	ids := NewRegistry().IDs()
	if len(ids) != 2 || ids[0] != crew.Kind || ids[1] != generator.KindExec {
		t.Fatalf("unexpected generators %v", ids)
	}
}

func TestFromConfigUsesConfiguredGenerator(t *testing.T) {
	projectDir := t.TempDir()
	if err := config.InitPlannerDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	svc, err := FromConfig(cfg, nil, logging.Discard())
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if _, ok := svc.generator.(*crew.Crew); !ok {
		t.Fatalf("expected crew generator, got %T", svc.generator)
	}
	if svc.Store().Root() != filepath.Join(projectDir, "results") {
		t.Fatalf("unexpected results dir %s", svc.Store().Root())
	}
	if svc.timeout != cfg.Project.Generator.Timeout {
		t.Fatalf("expected configured timeout")
	}

	cfg.Project.Generator.Kind = generator.KindExec
	cfg.Project.Generator.Command = []string{"python", "-m", "event_crew"}
	svc, err = FromConfig(cfg, nil, logging.Discard())
	if err != nil {
		t.Fatalf("from config exec: %v", err)
	}
	if _, ok := svc.generator.(*generator.Exec); !ok {
		t.Fatalf("expected exec generator, got %T", svc.generator)
	}
}
