package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"sort"
	"strconv"
	"sync"
)

// Logger is the logging interface used by the store.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

// folderPerm is the mode used when creating declared folders.
const folderPerm = 0o750

// unboundHomestarURL is rewritten to the local address so development
// setups do not need a hardcoded host.
var unboundHomestarURL = regexp.MustCompile(`^http://0[.]0[.]0[.]0`)

// hostInfo abstracts the host queries made while deriving fields.
type hostInfo struct {
	hostname func() (string, error)
	addrs    func() ([]net.Addr, error)
	mkdirAll func(path string, perm os.FileMode) error
}

func systemHost() hostInfo {
	return hostInfo{
		hostname: os.Hostname,
		addrs:    net.InterfaceAddrs,
		mkdirAll: os.MkdirAll,
	}
}

// Store loads the configuration tree once per process.
type Store struct {
	env    Environment
	logger Logger
	host   hostInfo

	mu     sync.Mutex
	tree   Tree
	loaded bool
}

// NewStore creates a store resolving placeholders against env.
func NewStore(env Environment) *Store {
	return &Store{
		env:    env,
		logger: noopLogger{},
		host:   systemHost(),
	}
}

// SetLogger sets the logger used for non-fatal warnings.
func (s *Store) SetLogger(logger Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// Environment returns the environment the store was created with.
func (s *Store) Environment() Environment {
	return s.env
}

// Load builds the configuration tree.
//
// The persisted overlay is deep-merged over defaults, command-line tokens are
// applied, required secrets are validated, and derived fields are computed.
// A second call on a loaded store returns the first tree and ignores its
// arguments.
//
// Parameters:
//   - defaults: Built-in tree, usually Defaults()
//   - persisted: Overlay read from the config file and keystore
//   - argv: Command-line tokens of the form path/to/leaf=value
//
// Returns:
//   - Tree: The loaded tree
//   - error: Override errors or *MissingSecretsError; both are fatal
func (s *Store) Load(defaults, persisted Tree, argv []string) (Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.tree, nil
	}

	merged := defaults.Merge(persisted).Raw()
	if err := ApplyOverrides(merged, argv); err != nil {
		return Tree{}, err
	}

	tree := Tree{root: merged}
	if err := checkSecrets(tree); err != nil {
		return Tree{}, err
	}
	s.checkKeys(tree)
	s.derive(merged)

	s.tree = Tree{root: merged}
	s.loaded = true
	return s.tree, nil
}

// Tree returns the loaded tree, or an empty tree before Load.
func (s *Store) Tree() Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return NewTree(nil)
	}
	return s.tree
}

// checkSecrets returns a *MissingSecretsError for every unset leaf under
// secrets, at any depth. Keys are reported relative to secrets.
func checkSecrets(t Tree) error {
	var missing []string
	collectUnset(t.Map("secrets"), "", &missing)
	if len(missing) > 0 {
		return newMissingSecretsError(missing)
	}
	return nil
}

func collectUnset(m map[string]any, prefix string, missing *[]string) {
	for key, v := range m {
		path := prefix + key
		switch x := v.(type) {
		case map[string]any:
			collectUnset(x, path+pathSeparator, missing)
		case nil:
			*missing = append(*missing, path)
		case string:
			if x == "" {
				*missing = append(*missing, path)
			}
		}
	}
}

// checkKeys logs optional credentials that are missing. The features that
// need them stay disabled.
func (s *Store) checkKeys(t Tree) {
	var missing []string
	for _, key := range []string{"key", "secret", "bearer"} {
		if !t.IsSet("keys/homestar/" + key) {
			missing = append(missing, "keys/homestar/"+key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		s.logger.Warn("homestar keys not set, remote features disabled",
			"missing", missing,
			"cause", "get keys from https://homestar.io/runners/",
		)
	}

	if t.Bool("influxdb/enabled") && !t.IsSet("keys/influxdb/token") {
		s.logger.Warn("influxdb token not set, render telemetry disabled",
			"cause", "homestar set keys/influxdb/token <token>",
		)
	}
}

// derive fills computed leaves in place.
func (s *Store) derive(m map[string]any) {
	if ip := firstIPv4(s.host.addrs); ip != "" {
		m["ip"] = ip
	}
	ip, _ := m["ip"].(string) //nolint:errcheck // non-string ip is left as-is

	web, _ := m["webserver"].(map[string]any) //nolint:errcheck // defaults always carry webserver
	if web == nil {
		web = map[string]any{}
		m["webserver"] = web
	}
	if isUnset(web["host"]) {
		web["host"] = ip
	}

	if hs, ok := m["homestar"].(map[string]any); ok {
		if u, ok := hs["url"].(string); ok && u != "" {
			hs["url"] = unboundHomestarURL.ReplaceAllString(u, "http://"+ip)
		}
	}

	if isUnset(web["url"]) {
		scheme, _ := web["scheme"].(string) //nolint:errcheck // empty scheme handled by BaseURL
		host, _ := web["host"].(string)     //nolint:errcheck // empty host handled by BaseURL
		port, _ := web["port"].(int)        //nolint:errcheck // zero port omitted by BaseURL
		web["url"] = BaseURL(scheme, host, port)
	}

	if isUnset(m["name"]) {
		if name, err := s.host.hostname(); err == nil {
			m["name"] = name
		} else {
			s.logger.Warn("could not determine hostname", "error", err)
		}
	}

	s.makeFolders(m)
}

// makeFolders creates every directory named under folders/*.
func (s *Store) makeFolders(m map[string]any) {
	folders, _ := m["folders"].(map[string]any) //nolint:errcheck // missing folders section is allowed
	keys := make([]string, 0, len(folders))
	for key := range folders {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		dir, ok := folders[key].(string)
		if !ok || dir == "" {
			continue
		}
		dir = s.env.Expand(dir)
		if err := s.host.mkdirAll(dir, folderPerm); err != nil && !errors.Is(err, os.ErrExist) {
			s.logger.Warn("could not create folder", "folder", key, "path", dir, "error", err)
			continue
		}
		s.logger.Debug("folder ready", "folder", key, "path", dir)
	}
}

// BaseURL builds scheme://host[:port], omitting the port when it is the
// default for the scheme.
func BaseURL(scheme, host string, port int) string {
	if scheme == "" {
		scheme = "http"
	}
	if port == 0 || (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, strconv.Itoa(port)))
}

// firstIPv4 returns the first non-loopback IPv4 address, or "".
func firstIPv4(addrs func() ([]net.Addr, error)) string {
	if addrs == nil {
		return ""
	}
	list, err := addrs()
	if err != nil {
		return ""
	}
	for _, addr := range list {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}

func isUnset(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
