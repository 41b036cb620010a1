package normalize

import "strings"

// parseKV splits an appliance key=value syslog line into a map.
// Values may be double-quoted ("may contain spaces"); unquoted values
// run to the next space. Malformed fragments are skipped, never fatal.
func parseKV(line string) map[string]string {
	fields := make(map[string]string)
	rest := line
	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " \t")
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			break
		}
		key := rest[:eq]
		if sp := strings.LastIndexByte(key, ' '); sp >= 0 {
			key = key[sp+1:]
		}
		rest = rest[eq+1:]
		var value string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				value = rest[1:]
				rest = ""
			} else {
				value = rest[1 : end+1]
				rest = rest[end+2:]
			}
		} else {
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				value = rest
				rest = ""
			} else {
				value = rest[:end]
				rest = rest[end+1:]
			}
		}
		if key != "" {
			fields[key] = value
		}
	}
	return fields
}

// splitEndpoint decodes the appliance endpoint notation
// "addr:port:iface" (port and interface optional) into address and
// optional port text.
func splitEndpoint(s string) (addr, port string) {
	parts := strings.Split(s, ":")
	addr = parts[0]
	if len(parts) > 1 {
		port = parts[1]
	}
	return addr, port
}
