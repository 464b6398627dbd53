/*
resolvetree is a small driver exercising the resolver façade end-to-end:
given a root Maven coordinate and one or more repositories, it resolves
the full transitive dependency tree and prints it.

	resolvetree --repo central=https://repo.maven.apache.org/maven2 \
	    com.google.guava:guava:31.1-jre

It is not a product CLI; it exists to drive the resolution pipeline from
the command line the way the teacher's own examples/go/* programs drive
the deps.dev API.
*/
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/artifactgraph/resolve/coordinate"
	"github.com/artifactgraph/resolve/conflict"
	"github.com/artifactgraph/resolve/connector"
	"github.com/artifactgraph/resolve/dep"
	"github.com/artifactgraph/resolve/resolver"
	"github.com/artifactgraph/resolve/session"
	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:      "resolvetree",
		Usage:     "resolve a Maven coordinate's transitive dependency tree",
		UsageText: "resolvetree [options] <group:artifact:version>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "repository as id=url, highest priority first; repeatable",
				Value:   cli.NewStringSlice("central=https://repo.maven.apache.org/maven2"),
			},
			&cli.StringFlag{
				Name:  "scope",
				Usage: "scope the root dependency is requested at",
				Value: string(dep.Compile),
			},
			&cli.BoolFlag{
				Name:  "converge",
				Usage: "fail instead of nearest-wins picking a version when the graph disagrees",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "hclog level: trace, debug, info, warn, error",
				Value: "warn",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "resolvetree:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one <group:artifact:version> argument is required", 2)
	}

	root, err := parseCoordinate(c.Args().First())
	if err != nil {
		return cli.Exit(err, 2)
	}

	repos, repoIDs, err := parseRepos(c.StringSlice("repo"))
	if err != nil {
		return cli.Exit(err, 2)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "resolvetree",
		Level: hclog.LevelFromString(c.String("log-level")),
	})

	sess := session.New(session.WithLogger(logger))
	registry := connector.NewRegistry(connector.FileFactory{}, connector.HTTPFactory{})

	var versionSelector conflict.VersionSelector
	if c.Bool("converge") {
		versionSelector = conflict.NewConvergenceEnforcing()
	}
	res := resolver.New(sess, registry, repos, versionSelector)

	g, err := res.Resolve(dep.Dependency{Coordinate: root, Scope: dep.Scope(c.String("scope"))})
	if err != nil {
		return fmt.Errorf("resolving %s against %s: %w", root, strings.Join(repoIDs, ","), err)
	}

	fmt.Print(g.String())
	if g.Error != "" {
		return cli.Exit("", 1)
	}
	return nil
}

// parseCoordinate parses "group:artifact:version" into a Coordinate with
// the conventional "pom" extension, since a resolution root is always a
// project descriptor, never a binary artifact.
func parseCoordinate(raw string) (coordinate.Coordinate, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return coordinate.Coordinate{}, fmt.Errorf("%q is not a group:artifact:version coordinate", raw)
	}
	return coordinate.New(parts[0], parts[1], "pom", "", parts[2])
}

// parseRepos parses a list of "id=url" flag values into Repository
// values, preserving the order given (the registry/resolver try
// repositories in the order a coordinate is allowed to resolve against,
// which callers here control via repeated --repo flags).
func parseRepos(raw []string) ([]connector.Repository, []string, error) {
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("at least one --repo is required")
	}
	repos := make([]connector.Repository, 0, len(raw))
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		id, url, ok := strings.Cut(r, "=")
		if !ok || id == "" || url == "" {
			return nil, nil, fmt.Errorf("%q is not a valid id=url repository", r)
		}
		repos = append(repos, connector.Repository{ID: id, URL: url})
		ids = append(ids, id)
	}
	return repos, ids, nil
}
