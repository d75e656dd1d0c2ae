package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cocopam/binny-buddy-ai/internal/adapters/builder"
	"github.com/cocopam/binny-buddy-ai/internal/adapters/docker"
	"github.com/cocopam/binny-buddy-ai/internal/config"
	"github.com/cocopam/binny-buddy-ai/internal/logging"
	"github.com/cocopam/binny-buddy-ai/internal/release"
	"github.com/urfave/cli/v2"
)

var (
	contextFlag = &cli.StringFlag{
		Name:  "context",
		Value: ".",
		Usage: "build context directory",
	}
	dockerfileFlag = &cli.StringFlag{
		Name:  "file",
		Value: release.DefaultDockerfile,
		Usage: "Dockerfile path relative to the context",
	}
	tagFlag = &cli.StringFlag{
		Name:  "tag",
		Value: release.DefaultTag,
		Usage: "image reference",
	}
)

func options(cCtx *cli.Context) release.Options {
	return release.Options{
		ContextDir: cCtx.String("context"),
		Dockerfile: cCtx.String("file"),
		Tag:        cCtx.String("tag"),
	}
}

func main() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = config.EnvDevelopment
	}
	log := logging.New(env, os.Stderr)

	app := &cli.App{
		Name:  "binny-release",
		Usage: "build, publish and smoke-check the binny-buddy-ai image",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "build the image with the local Docker daemon",
				Flags: []cli.Flag{contextFlag, dockerfileFlag, tagFlag,
					&cli.StringFlag{Name: "platform", Usage: "target platform, defaults to the daemon's"},
				},
				Action: func(cCtx *cli.Context) error {
					b, err := builder.NewBuilderAdapter(os.Stdout)
					if err != nil {
						return err
					}
					defer b.Close()

					opts := options(cCtx)
					if p := cCtx.String("platform"); p != "" {
						if opts.Platforms, err = release.ParsePlatforms(p); err != nil {
							return err
						}
					}
					_, err = release.New(b, nil, log).Build(cCtx.Context, opts)
					return err
				},
			},
			{
				Name:  "publish",
				Usage: "build every platform and push one multi-platform image",
				Flags: []cli.Flag{contextFlag, dockerfileFlag, tagFlag,
					&cli.StringFlag{Name: "platforms", Value: "linux/arm64,linux/amd64", Usage: "comma separated target platforms"},
				},
				Action: func(cCtx *cli.Context) error {
					platforms, err := release.ParsePlatforms(cCtx.String("platforms"))
					if err != nil {
						return err
					}
					opts := options(cCtx)
					opts.Platforms = platforms

					ref, err := release.New(nil, builder.NewPublisher(os.Stderr), log).Publish(cCtx.Context, opts)
					if err != nil {
						return err
					}
					fmt.Println(ref)
					return nil
				},
			},
			{
				Name:  "smoke",
				Usage: "run the image and check it serves /health on port 8000",
				Flags: []cli.Flag{tagFlag,
					&cli.StringFlag{Name: "host-port", Value: "8000", Usage: "host port bound to the container's 8000"},
					&cli.StringSliceFlag{Name: "env", Usage: "extra KEY=VALUE for the container"},
					&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "how long to wait for /health"},
				},
				Action: func(cCtx *cli.Context) error {
					runner, err := docker.NewAdapter()
					if err != nil {
						return err
					}
					defer runner.Close()

					return release.NewSmoker(runner, log).Check(cCtx.Context, release.SmokeOptions{
						Image:    cCtx.String("tag"),
						HostPort: cCtx.String("host-port"),
						Env:      cCtx.StringSlice("env"),
						Timeout:  cCtx.Duration("timeout"),
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
