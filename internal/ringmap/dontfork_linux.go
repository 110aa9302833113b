//go:build linux

package ringmap

// DontFork applies MADV_DONTFORK to every region this Mapping owns, so a
// forked child process does not inherit the rings and race the parent on
// their indices. Idempotent; safe to call multiple times.
func (m *Mapping) DontFork() error {
	for _, region := range [][]byte{m.sqRegion, m.cqRegion, m.sqesRegion} {
		if region == nil {
			continue
		}
		if err := DontFork(region); err != nil {
			return err
		}
	}
	return nil
}
