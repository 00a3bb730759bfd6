package recording

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"myonorm/internal/emgerr"
)

// ChannelConfigFile is the per-session file listing channel names.
const ChannelConfigFile = "channel_config.txt"

// ChannelSet is the ordered list of channel names for a session. Line order
// in channel_config.txt is the channel index.
type ChannelSet []string

// Name returns the name of channel index, or "ch<index>" when out of range.
func (c ChannelSet) Name(index int) string {
	if index >= 0 && index < len(c) {
		return c[index]
	}
	return fmt.Sprintf("ch%d", index)
}

// LoadChannelSet reads channel_config.txt from dir. Line i names channel i,
// so blank lines are only allowed after the last name.
func LoadChannelSet(dir string) (ChannelSet, error) {
	path := filepath.Join(dir, ChannelConfigFile)
	file, err := os.Open(path)
	if err != nil {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "load channels",
			"read "+ChannelConfigFile, err)
	}
	defer file.Close()

	var names ChannelSet
	seen := make(map[string]int)
	scanner := bufio.NewScanner(file)
	line, blank := 0, 0
	for scanner.Scan() {
		line++
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			if blank == 0 {
				blank = line
			}
			continue
		}
		if blank != 0 {
			return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "load channels",
				fmt.Sprintf("%s line %d is blank before channel %q on line %d", ChannelConfigFile, blank, name, line), nil)
		}
		if prev, ok := seen[name]; ok {
			return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "load channels",
				fmt.Sprintf("%s line %d repeats channel %q from line %d", ChannelConfigFile, line, name, prev), nil)
		}
		seen[name] = line
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "load channels",
			"scan "+ChannelConfigFile, err)
	}
	if len(names) == 0 {
		return nil, emgerr.Wrap(emgerr.ErrConfiguration, "recording", "load channels",
			ChannelConfigFile+" lists no channels", nil)
	}
	return names, nil
}

// WriteChannelSet writes names to dir/channel_config.txt.
func WriteChannelSet(dir string, names ChannelSet) error {
	body := strings.Join(names, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, ChannelConfigFile), []byte(body), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", ChannelConfigFile, err)
	}
	return nil
}
