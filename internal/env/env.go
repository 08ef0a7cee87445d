package env

import (
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// Env describes where the process runs. Exactly one of Glue and Local is set.
type Env struct {
	Glue    bool   `json:"glue"`
	Local   bool   `json:"local"`
	JobName string `json:"job_name,omitempty"`
}

// Variables Glue sets in a job container.
var glueMarkers = []string{"AWS_EXECUTION_ENV", "GLUE_SCRIPT_PATH"}

// DetermineEnv detects a Glue job from its environment and, inside Glue,
// reads the job name from the --JOB_NAME job argument. lookup is normally
// os.LookupEnv and args os.Args[1:].
func DetermineEnv(log zerolog.Logger, lookup func(string) (string, bool), args []string) Env {
	glue := false
	for _, k := range glueMarkers {
		if _, ok := lookup(k); ok {
			glue = true
			break
		}
	}
	if !glue {
		return Env{Local: true}
	}

	out := Env{Glue: true}
	name, ok, err := ResolveOption(args, "JOB_NAME")
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("unable to parse glue job arguments, job name not determined")
	case !ok:
		log.Warn().Msg("JOB_NAME not found in glue job arguments")
	default:
		out.JobName = name
	}
	return out
}

// ResolveOption returns the value of --name from Glue style job arguments,
// ignoring every other argument.
func ResolveOption(args []string, name string) (string, bool, error) {
	fs := pflag.NewFlagSet("glue-job", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}

	val := fs.String(name, "", "")
	if err := fs.Parse(args); err != nil {
		return "", false, err
	}
	if !fs.Changed(name) {
		return "", false, nil
	}
	return *val, true, nil
}
