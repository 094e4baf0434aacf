package config

import "time"

// Version is the compiler version stamped into cached modules.
const Version = "0.1.1"

// ModuleCompatibility is the range of compiler versions whose cached
// modules can be reused.
const ModuleCompatibility = ">= 0.1.0, < 0.2.0"

// DeprecatedBefore is the first compiler version whose modules work with
// the current standard library.
const DeprecatedBefore = "0.9.8"

// DocumentExtensions are the recognized interchange document extensions,
// in lookup order.
var DocumentExtensions = []string{".yjs.yaml", ".yjs.yml", ".yjs.json", ".yjs.cbor"}

// ScriptExt is the extension of inline target scripts.
const ScriptExt = ".js"

// ProjectFiles are the project file names searched for, in order.
var ProjectFiles = []string{"yjs.yaml", "yjs.yml", "yjs.toml"}

// MainMarker separates the modules from the program in assembled output.
const MainMarker = "// --- yjsmain ---"

// DefaultCacheDir is the disk cache location relative to the project.
const DefaultCacheDir = ".yjs/cache"

// Default listen addresses of the compile service.
const (
	DefaultGRPCAddr = "127.0.0.1:7071"
	DefaultHTTPAddr = "127.0.0.1:7070"
)

// SessionTTL is how long an idle interactive session is kept.
const SessionTTL = 5 * time.Minute
