package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"

	"riskgrid/config"
	"riskgrid/pipeline"
	"riskgrid/web"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Build   struct {
		Crashes string `help:"CSV file with crash records." placeholder:"<crash-file>" arg:"" type:"existingfile"`
		Network string `help:"Street network file. Either .osm or .osm.pbf." placeholder:"<network-file>" arg:"" type:"existingfile"`
		Crimes  string `help:"Optional CSV file with crime complaint records." placeholder:"<crime-file>" optional:""`
		Output  string `help:"Directory the artifacts are written to." short:"o" default:"risk-artifacts"`
		Config  string `help:"Optional YAML file overriding the default engine configuration." type:"existingfile" optional:""`
		GeoJson string `help:"Optional GeoJSON dump of the filled grid for debugging." optional:""`
	} `cmd:"" help:"Builds the risk grid and intersection artifacts from the given input files."`
	Serve struct {
		Artifacts string `help:"Directory containing the built artifacts." arg:"" type:"existingdir"`
		Port      string `help:"Port the server listens on." short:"p" default:"8080"`
	} `cmd:"" help:"Serves the built artifacts over HTTP."`
}

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("riskgrid"),
		kong.Description("Aggregates crash, crime and street network data into a cycling risk grid."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	switch ctx.Command() {
	case "build <crashes> <network>":
		cfg := config.Default()
		if cli.Build.Config != "" {
			var err error
			cfg, err = config.Load(cli.Build.Config)
			sigolo.FatalCheck(err)
		}

		err := pipeline.Run(pipeline.Options{
			CrashFile:   cli.Build.Crashes,
			CrimeFile:   cli.Build.Crimes,
			NetworkFile: cli.Build.Network,
			OutputDir:   cli.Build.Output,
			GeoJsonFile: cli.Build.GeoJson,
		}, cfg)
		sigolo.FatalCheck(err)
	case "serve <artifacts>":
		web.StartServer(cli.Serve.Port, cli.Serve.Artifacts)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}
