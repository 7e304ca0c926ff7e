/*
   NibConv - Commodore 1541 GCR disk image converter
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of NibConv.

   NibConv is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   NibConv is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with NibConv. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to the environment variables of all settings.
const EnvPrefix = "NIBCONV_"

const notesHeader = "\nNotes:\n\n"

// UnderTest makes fatal errors panic instead of exiting the process.
var UnderTest bool

// confirmInput is where answers to confirmation prompts are read from.
var confirmInput io.Reader = os.Stdin

// DieOnError terminates the process with exit code 1 if e is not nil, after
// printing e to stderr.
func DieOnError(e error) {
	if e == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%v\n", e)
	if UnderTest {
		panic(e.Error())
	}
	os.Exit(1)
}

// Die terminates the process with a formatted error message.
func Die(msg string, params ...interface{}) {
	DieOnError(fmt.Errorf(msg, params...))
}

// GetUserConfirmation asks a yes/no question, no being the default.
func GetUserConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(confirmInput).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

/*
	NewCommand wraps a new Cobra command. exec gets called with all settings
	in place when the command is executed. Each command keeps its own Viper
	instance, so commands can be created and run any number of times within
	one process.
*/
func NewCommand(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Command {

	ret := &Command{
		viper:        viper.New(),
		helpPrologue: helpPrologue,
		helpEpilogue: helpEpilogue,
	}

	ret.cmd = &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(*cobra.Command, []string) error {
			if err := ret.ParseSettings(); err != nil {
				return err
			}
			return exec()
		},
		SilenceErrors:         true,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
	}

	ret.helpFunc = ret.cmd.HelpFunc()
	ret.cmd.SetHelpFunc(ret.help)
	return ret
}

/*
	Command is a wrapper around Cobra & Viper. Every setting can be given as a
	command line flag, and optionally as an environment variable. The variable
	name is derived from the flag, e.g. flag --fix-gcr becomes NIBCONV_FIX_GCR.
	A flag given on the command line overrides the environment variable.
	Required settings produce an error message naming both flag and variable.
*/
type Command struct {
	//
	cmd   *cobra.Command
	viper *viper.Viper
	//
	settings []*setting
	//
	Args []string
	//
	helpPrologue string
	helpEpilogue string
	helpFunc     func(*cobra.Command, []string)
}

// help wraps Cobra's help output with the command's prologue and epilogue
func (c *Command) help(cmd *cobra.Command, args []string) {

	out := cmd.OutOrStdout()

	if c.helpPrologue != "" {
		fmt.Fprintln(out, c.helpPrologue)
	}
	c.helpFunc(cmd, args)
	if c.helpEpilogue != "" {
		fmt.Fprint(out, notesHeader)
		fmt.Fprint(out, c.helpEpilogue)
	}
	fmt.Fprintln(out)
}

/*
	Execute parses the settings and invokes the exec function that was set on
	this command when it was created. args are the command's arguments without
	the action name.
*/
func (c *Command) Execute(args []string) error {
	if args == nil {
		args = []string{}
	}
	c.cmd.SetArgs(args)
	return c.cmd.Execute()
}

/*
	AddSetting adds a setting to this command. Target is a pointer to the
	variable the setting gets stored in. Flag is the long (double-dash) command
	line flag, short its single-dash version. With env set, the setting can
	also come from an environment variable. def is the default value, nil
	meaning the zero value of the target's type. help carries online help for
	the setting, and required tells whether this is a mandatory setting.
	Errors in a setting's definition are programming errors, and cause the
	process to die.
*/
func (c *Command) AddSetting(target interface{}, flag, short string, env bool,
	def interface{}, help string, required bool) {

	s := &setting{flag: flag, required: required, target: target}
	if env {
		s.env = EnvName(flag)
	}

	typ, name, err := s.typeAndName()
	DieOnError(err)

	log.Tracef("add setting: flag=%s, env=%s, type=%s", flag, s.env, typ)

	if _, err := c.getter(name); err != nil {
		// pflag supports more types than Viper, so check this early on
		Die("setting '%s' is of unsupported type: %v", flag, err)
	}

	val := reflect.Zero(typ)
	if def != nil {
		if required {
			Die("required setting '%s' does not take a default value", flag)
		}
		if !reflect.TypeOf(def).ConvertibleTo(typ) {
			Die("default value for setting '%s' has incorrect type", flag)
		}
		val = reflect.ValueOf(def).Convert(typ)
	}

	flags := c.cmd.Flags()
	method := reflect.ValueOf(flags).MethodByName(name + "VarP")
	if method.Kind() != reflect.Func {
		Die("setting '%s' is of unsupported type: no pflag method", flag)
	}

	if s.env != "" {
		help = fmt.Sprintf("%s (%s)", help, s.env)
	}

	method.Call([]reflect.Value{reflect.ValueOf(target),
		reflect.ValueOf(flag), reflect.ValueOf(short), val,
		reflect.ValueOf(help)})

	DieOnError(c.viper.BindPFlag(flag, flags.Lookup(flag)))
	if s.env != "" {
		DieOnError(c.viper.BindEnv(flag, s.env))
	}

	c.settings = append(c.settings, s)
}

/*
	ParseSettings places the values of all settings in the variables they are
	bound to. This is done automatically before the command's exec function
	is invoked.
*/
func (c *Command) ParseSettings() error {
	for _, s := range c.settings {
		if err := c.apply(s); err != nil {
			return err
		}
	}
	c.Args = c.cmd.Flags().Args()
	return nil
}

// Flags gives access to the command's flag set, e.g. for marking flags as
// hidden or deprecated.
func (c *Command) Flags() *pflag.FlagSet {
	return c.cmd.Flags()
}

//
func (c *Command) apply(s *setting) error {

	typ, name, err := s.typeAndName()
	if err != nil {
		return err
	}

	getter, err := c.getter(name)
	if err != nil {
		return err
	}

	val := getter.Call([]reflect.Value{reflect.ValueOf(s.flag)})[0]
	log.WithFields(log.Fields{
		"flag":  s.flag,
		"value": val,
		"set":   c.viper.IsSet(s.flag),
	}).Trace("setting")

	if s.required && val.Interface() == reflect.Zero(typ).Interface() {
		msg := fmt.Sprintf("you need to specify the --%s command line flag",
			s.flag)
		if s.env != "" {
			msg = fmt.Sprintf("%s or the %s environment variable", msg, s.env)
		}
		return fmt.Errorf("%s", msg)
	}

	// Viper does not write values taken from the environment into the bound
	// flag variable, so this is always done here. Values from the command
	// line or defaults are not changed by this.
	reflect.ValueOf(s.target).Elem().Set(val)
	return nil
}

//
func (c *Command) getter(name string) (reflect.Value, error) {
	method := "Get" + name
	ret := reflect.ValueOf(c.viper).MethodByName(method)
	if ret.Kind() != reflect.Func {
		return ret, fmt.Errorf("no Viper getter %s", method)
	}
	return ret, nil
}

// EnvName returns the name of the environment variable for a flag.
func EnvName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

//
type setting struct {
	flag     string
	env      string
	required bool
	target   interface{}
}

// typeAndName returns the type of a setting, and the name used in the
// corresponding pflag and Viper methods, e.g. Bool for GetBool and BoolVarP.
// Slices are not supported.
func (s *setting) typeAndName() (reflect.Type, string, error) {

	typ := reflect.TypeOf(s.target)

	if typ.Kind() != reflect.Ptr {
		return nil, "", fmt.Errorf(
			"target for setting '%s' is not a pointer", s.flag)
	}

	elem := typ.Elem()
	if elem.Kind() == reflect.Slice {
		return nil, "", fmt.Errorf(
			"setting '%s' is a slice, which is not supported", s.flag)
	}

	return elem, strings.Title(elem.Name()), nil
}
