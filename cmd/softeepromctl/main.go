// Command softeepromctl manipulates an emulated-EEPROM flash image from
// the command line: formatting, reading and writing ids, dumping the
// live contents, and running the built-in self test. It operates on an
// image file, so it doubles as an offline inspection tool for images
// pulled off real hardware.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/emberfield/go-softeeprom/eeprom"
	"github.com/emberfield/go-softeeprom/flash"
	"github.com/emberfield/go-softeeprom/netconfig"
	"github.com/emberfield/go-softeeprom/selftest"
	"github.com/emberfield/go-softeeprom/store"
)

var (
	flagConfig  = flag.String("config", "", "YAML config file (defaults apply when omitted)")
	flagImage   = flag.String("image", "", "Flash image file (overrides the config file)")
	flagVerbose = flag.Bool("v", false, "Log store diagnostics to stderr")
)

// FileConfig is the YAML layout of the config file.
type FileConfig struct {
	Image  string `yaml:"image"`
	Device struct {
		Size       uint32 `yaml:"size"`
		EraseBlock uint32 `yaml:"erase_block"`
	} `yaml:"device"`
	Region struct {
		Start    uint32 `yaml:"start"`
		End      uint32 `yaml:"end"`
		PageSize uint32 `yaml:"page_size"`
	} `yaml:"region"`
	MaxIDs uint16 `yaml:"max_ids"`
}

func defaultFileConfig() FileConfig {
	var c FileConfig
	c.Image = "softeeprom.img"
	c.Device.Size = 2048
	c.Device.EraseBlock = 1024
	c.Region.Start = 0
	c.Region.End = 2048
	c.Region.PageSize = 1024
	c.MaxIDs = store.DefaultMaxIDs
	return c
}

func loadConfig() (FileConfig, error) {
	c := defaultFileConfig()
	if *flagConfig != "" {
		raw, err := os.ReadFile(*flagConfig)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("parse config: %w", err)
		}
	}
	if *flagImage != "" {
		c.Image = *flagImage
	}
	return c, nil
}

// stderrLogger feeds the store's diagnostics to the standard logger.
type stderrLogger struct{}

func (stderrLogger) Debug(msg string, kv ...interface{}) { log.Println("DEBUG:", msg, kv) }
func (stderrLogger) Info(msg string, kv ...interface{})  { log.Println("INFO:", msg, kv) }
func (stderrLogger) Error(msg string, kv ...interface{}) { log.Println("ERROR:", msg, kv) }

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: softeepromctl [flags] <command> [args]

Commands:
  format                        erase the image and initialize an empty store
  get <id>                      print the value of an id
  set <id> <value>              write a value (decimal or 0x hex)
  dump                          print every id that holds a value
  clear                         discard all values
  selftest                      run the built-in self test
  netconfig show                print the stored network identity
  netconfig set [options]       store network identity fields:
      -mac 00:1a:b6:00:00:01 -ip 192.168.1.20 -netmask 255.255.255.0 -gw 192.168.1.1

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("softeepromctl: %v", err)
	}

	if err := run(cfg, flag.Args()); err != nil {
		var se *store.Error
		if errors.As(err, &se) {
			log.Fatalf("softeepromctl: %v (errno %#04x)", err, se.Errno())
		}
		log.Fatalf("softeepromctl: %v", err)
	}
}

func run(cfg FileConfig, args []string) error {
	dev, err := flash.OpenFile(cfg.Image, cfg.Device.Size, cfg.Device.EraseBlock)
	if err != nil {
		return err
	}
	defer dev.Close()

	if args[0] == "format" {
		return cmdFormat(cfg, dev)
	}

	st, err := openStore(cfg, dev)
	if err != nil {
		return err
	}

	switch args[0] {
	case "get":
		return cmdGet(st, args[1:])
	case "set":
		return cmdSet(st, dev, args[1:])
	case "dump":
		return cmdDump(st)
	case "clear":
		if err := st.Clear(); err != nil {
			return err
		}
		return dev.Sync()
	case "selftest":
		return cmdSelftest(st, dev)
	case "netconfig":
		return cmdNetconfig(st, dev, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func openStore(cfg FileConfig, dev flash.Device) (*store.Store, error) {
	opts := []store.Option{store.WithMaxIDs(cfg.MaxIDs)}
	if *flagVerbose {
		opts = append(opts, store.WithLogger(stderrLogger{}))
	}
	return store.Open(dev, cfg.Region.Start, cfg.Region.End, cfg.Region.PageSize, opts...)
}

// cmdFormat erases the whole configured region and reopens the store,
// which reinitializes it from the fresh state.
func cmdFormat(cfg FileConfig, dev *flash.FileDevice) error {
	for off := cfg.Region.Start; off < cfg.Region.End; off += dev.EraseBlockSize() {
		if err := dev.EraseBlock(off); err != nil {
			return err
		}
	}
	st, err := openStore(cfg, dev)
	if err != nil {
		return err
	}
	if err := dev.Sync(); err != nil {
		return err
	}

	fmt.Printf("Formatted %s: %d ids, %d entries per page\n",
		cfg.Image, st.MaxIDs(), st.EntriesPerPage())
	return nil
}

func cmdGet(st *store.Store, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <id>")
	}
	id, err := parseU16(args[0])
	if err != nil {
		return err
	}

	v, found, err := st.Read(id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("id %d is unset", id)
	}
	fmt.Printf("%#04x\n", v)
	return nil
}

func cmdSet(st *store.Store, dev *flash.FileDevice, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set <id> <value>")
	}
	id, err := parseU16(args[0])
	if err != nil {
		return err
	}
	v, err := parseU16(args[1])
	if err != nil {
		return err
	}

	if err := st.Write(id, v); err != nil {
		return err
	}
	return dev.Sync()
}

func cmdDump(st *store.Store) error {
	for id := uint16(0); id < st.MaxIDs(); id++ {
		v, found, err := st.Read(id)
		if err != nil {
			return err
		}
		if found {
			fmt.Printf("%3d  %#04x\n", id, v)
		}
	}

	s, err := st.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("\npage %d/%d  generation %d  free entries %d\n",
		s.ActivePage, s.Pages, s.Generation, s.FreeEntries)
	return nil
}

func cmdSelftest(st *store.Store, dev *flash.FileDevice) error {
	err := selftest.Run(st, func(ev selftest.Event) {
		fmt.Printf("[%s] %s\n", ev.Phase, ev.Message)
	})
	if err != nil {
		return err
	}
	return dev.Sync()
}

func cmdNetconfig(st *store.Store, dev *flash.FileDevice, args []string) error {
	e := eeprom.New(st)

	if len(args) == 0 || args[0] == "show" {
		c, err := netconfig.Load(e)
		if err != nil {
			return err
		}
		printField := func(name string, v fmt.Stringer, set bool) {
			if set {
				fmt.Printf("  %-8s %s\n", name, v)
			} else {
				fmt.Printf("  %-8s (unset)\n", name)
			}
		}
		printField("MAC", c.MAC, c.MAC != nil)
		printField("IP", c.IP, c.IP != nil)
		printField("Netmask", c.Netmask, c.Netmask != nil)
		printField("Gateway", c.Gateway, c.Gateway != nil)
		return nil
	}

	if args[0] != "set" {
		return fmt.Errorf("usage: netconfig [show|set ...], got %q", args[0])
	}

	fs := flag.NewFlagSet("netconfig set", flag.ExitOnError)
	mac := fs.String("mac", "", "MAC address (aa:bb:cc:dd:ee:ff)")
	ip := fs.String("ip", "", "IPv4 address")
	netmask := fs.String("netmask", "", "IPv4 netmask")
	gw := fs.String("gw", "", "IPv4 gateway")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var c netconfig.Config
	if *mac != "" {
		hw, err := net.ParseMAC(*mac)
		if err != nil {
			return fmt.Errorf("parse MAC: %w", err)
		}
		c.MAC = hw
	}
	for _, f := range []struct {
		name string
		s    string
		dst  *net.IP
	}{
		{"ip", *ip, &c.IP},
		{"netmask", *netmask, &c.Netmask},
		{"gw", *gw, &c.Gateway},
	} {
		if f.s == "" {
			continue
		}
		parsed := net.ParseIP(f.s)
		if parsed == nil {
			return fmt.Errorf("parse %s: invalid address %q", f.name, f.s)
		}
		*f.dst = parsed
	}

	if err := netconfig.Save(e, c); err != nil {
		return err
	}
	return dev.Sync()
}

func parseU16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return uint16(n), nil
}
