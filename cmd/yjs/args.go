package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/funvibe/yjs/internal/modules"
)

const usage = `yjs [options] <unit or document>...

  -e <document>   compile the given document
  -p              print the target code
  -d [directory]  write the target code into directory (default .)
  -sp <path>      source path, separated by '%c'
  -parse-tree     print the tree of each unit
  -t              print the type of each unit
  -w              recompile when sources change
  -server         start the compile service
  -v              verbose logging, repeat for more detail
  -h              print this help
`

var errHelp = errors.New("help requested")

type options struct {
	expr       string
	print      bool
	outDir     string
	sourcePath []string
	parseTree  bool
	showType   bool
	watch      bool
	server     bool
	verbosity  int
	inputs     []string
}

// emits reports whether target code is written somewhere.
func (o *options) emits() bool {
	return o.print || o.outDir != "" || !(o.parseTree || o.showType)
}

func parseArgs(args []string) (*options, error) {
	o := &options{}
	value := func(i int, flag string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%s expects an argument", flag)
		}
		return args[i+1], nil
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-e":
			v, err := value(i, arg)
			if err != nil {
				return nil, err
			}
			o.expr = v
			i++
		case "-p":
			o.print = true
		case "-d":
			o.outDir = "."
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !modules.IsDocument(args[i+1]) {
				o.outDir = args[i+1]
				i++
			}
		case "-sp":
			v, err := value(i, arg)
			if err != nil {
				return nil, err
			}
			o.sourcePath = append(o.sourcePath, filepath.SplitList(v)...)
			i++
		case "-parse-tree":
			o.parseTree = true
		case "-t":
			o.showType = true
		case "-w":
			o.watch = true
		case "-server":
			o.server = true
		case "-v", "-vv", "-vvv":
			o.verbosity += len(arg) - 1
		case "-h", "-help", "--help":
			return nil, errHelp
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown option %s", arg)
			}
			o.inputs = append(o.inputs, arg)
		}
	}
	if o.expr == "" && len(o.inputs) == 0 && !o.server {
		return nil, errHelp
	}
	if o.expr != "" && o.watch {
		return nil, errors.New("-w cannot be used with -e")
	}
	return o, nil
}
