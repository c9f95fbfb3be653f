// Package server exposes the analysis engine over MCP.
package server

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"psymcp/internal/config"
	"psymcp/internal/engine"
	"psymcp/internal/ontology"
)

// Server wraps the MCP server and connects it to the analysis engine.
type Server struct {
	mcp *mcp.Server
	eng *engine.Engine
	cfg *config.Config
	log *zap.Logger
}

// New creates a new MCP server wired to the given engine.
func New(eng *engine.Engine, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		eng: eng,
		cfg: cfg,
		log: logger,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "psymcp",
		Version: "0.1.0",
	}, nil)

	s.mcp = mcpServer
	s.registerResources()
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// readingResources maps resource URIs to artifact names.
var readingResources = []struct {
	uri         string
	name        string
	description string
	mimeType    string
	artifact    string
}{
	{
		uri:         "psy://reading/report",
		name:        "Dream Interpretation",
		description: "The full markdown interpretation of the last analyzed repository",
		mimeType:    "text/markdown",
		artifact:    "interpretation.md",
	},
	{
		uri:         "psy://reading/structure",
		name:        "Code Structure",
		description: "The raw aggregated structural facts as JSON",
		mimeType:    "application/json",
		artifact:    "structure.json",
	},
	{
		uri:         "psy://reading/profile",
		name:        "Symbolic Profile",
		description: "Dominant and secondary archetypes with evidence",
		mimeType:    "application/json",
		artifact:    "profile.json",
	},
	{
		uri:         "psy://reading/motifs",
		name:        "Recurring Motifs",
		description: "Detected naming, structural, behavioral, and rhythmic motifs",
		mimeType:    "application/json",
		artifact:    "motifs.json",
	},
	{
		uri:         "psy://reading/tensions",
		name:        "Inner Tensions",
		description: "Detected contradictions, abandonments, and engineering imbalances",
		mimeType:    "application/json",
		artifact:    "tensions.json",
	},
	{
		uri:         "psy://reading/meta",
		name:        "Reading Metadata",
		description: "Metadata about the last analysis run",
		mimeType:    "application/json",
		artifact:    "reading.meta.json",
	},
}

// registerResources adds MCP resources for analysis artifacts.
func (s *Server) registerResources() {
	for _, res := range readingResources {
		artifact := res.artifact
		mimeType := res.mimeType
		s.mcp.AddResource(&mcp.Resource{
			URI:         res.uri,
			Name:        res.name,
			Description: res.description,
			MIMEType:    res.mimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			content, err := s.eng.GetArtifact(artifact)
			if err != nil {
				return nil, fmt.Errorf("no reading available: %w (run analyze_repository first)", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, Text: content, MIMEType: mimeType},
				},
			}, nil
		})
	}
}

// analyzeRepositoryArgs are the arguments for the analyze_repository tool.
type analyzeRepositoryArgs struct {
	RepoPath string `json:"repo_path" jsonschema:"Path to the repository to analyze. Defaults to the configured repo path."`
}

// getArchetypesArgs are the arguments for the get_archetypes tool.
type getArchetypesArgs struct {
	Name string `json:"name,omitempty" jsonschema:"Archetype identifier to describe (e.g. anxious_caretaker). Lists all archetypes when empty."`
}

// registerTools adds MCP tools for analysis and archetype lookup.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "analyze_repository",
		Description: "Analyze a repository's structural patterns and produce a symbolic dream interpretation: archetypes, recurring motifs, and inner tensions.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeRepositoryArgs) (*mcp.CallToolResult, any, error) {
		repoPath := args.RepoPath
		if repoPath == "" {
			repoPath = s.cfg.Repo
		}

		absRepo, err := filepath.Abs(repoPath)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid repo path: %v", err)), nil, nil
		}

		result, err := s.eng.Analyze(ctx, absRepo)
		if err != nil {
			return errorResult(fmt.Sprintf("analysis failed: %v", err)), nil, nil
		}

		if err := s.eng.WriteArtifacts(absRepo); err != nil {
			s.log.Warn("failed to write artifacts", zap.Error(err))
		}

		summary := fmt.Sprintf(
			"Reading complete.\n\n"+
				"- Repository: %s\n"+
				"- Files analyzed: %d (skipped %d)\n"+
				"- Functions: %d, classes: %d\n"+
				"- Archetypes: %d\n"+
				"- Motifs: %d\n"+
				"- Tensions: %d\n"+
				"- Duration: %s\n\n"+
				"Use the psy://reading/report resource to read the interpretation.",
			result.Meta.RepoPath,
			result.Meta.FilesAnalyzed,
			result.Meta.FilesSkipped,
			result.Structure.FunctionCount,
			result.Structure.ClassCount,
			result.Meta.ArchetypeCount,
			result.Meta.MotifCount,
			result.Meta.TensionCount,
			result.Meta.Duration,
		)

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: summary},
			},
		}, nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_archetypes",
		Description: "Describe the symbolic archetypes the classifier can detect, or one archetype by identifier.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getArchetypesArgs) (*mcp.CallToolResult, any, error) {
		if args.Name != "" {
			a := ontology.Archetype(strings.ToLower(args.Name))
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					&mcp.TextContent{Text: fmt.Sprintf("%s: %s", a, ontology.Describe(a))},
				},
			}, nil, nil
		}

		all := ontology.All()
		sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

		var sb strings.Builder
		for _, a := range all {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", a, ontology.Describe(a)))
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: sb.String()},
			},
		}, nil, nil
	})
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
