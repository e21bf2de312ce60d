/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package snmpsource exposes an SNMP conceptual table (ifTable and friends) as a scan
// data source. Each projected column is walked once and rows are joined on the OID index.
package snmpsource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosnmp/gosnmp"

	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/scan"
)

var (
	errUnsupportedVersion = errors.New("unsupported SNMP version")
	errTargetRequired     = errors.New("snmp target is required")
)

// ColIndex is the synthetic column holding the row's OID index.
const ColIndex = "index"

// Config describes how to reach one SNMP agent.
type Config struct {
	Target          string          `json:"target" yaml:"target"`
	Port            uint16          `json:"port,omitempty" yaml:"port,omitempty"`
	Version         string          `json:"version,omitempty" yaml:"version,omitempty"`
	Community       string          `json:"community,omitempty" yaml:"community,omitempty"`
	Username        string          `json:"username,omitempty" yaml:"username,omitempty"`
	AuthProtocol    string          `json:"auth_protocol,omitempty" yaml:"auth_protocol,omitempty"`
	AuthPassword    string          `json:"auth_password,omitempty" yaml:"auth_password,omitempty"`
	PrivacyProtocol string          `json:"privacy_protocol,omitempty" yaml:"privacy_protocol,omitempty"`
	PrivacyPassword string          `json:"privacy_password,omitempty" yaml:"privacy_password,omitempty"`
	Timeout         models.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Retries         int             `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// Client is the part of *gosnmp.GoSNMP a table walk needs.
type Client interface {
	Connect() error
	BulkWalk(rootOid string, walkFn gosnmp.WalkFunc) error
	Close() error
}

// Dialer builds a client bound to ctx.
type Dialer func(ctx context.Context) (Client, error)

type goSNMPClient struct {
	*gosnmp.GoSNMP
}

func (c goSNMPClient) Close() error {
	if c.Conn == nil {
		return nil
	}

	return c.Conn.Close()
}

// NewDialer returns a Dialer for cfg.
func NewDialer(cfg Config) (Dialer, error) {
	if cfg.Target == "" {
		return nil, errTargetRequired
	}

	// validate version and security settings up front
	if err := configureVersion(&gosnmp.GoSNMP{}, cfg); err != nil {
		return nil, err
	}

	return func(ctx context.Context) (Client, error) {
		client := &gosnmp.GoSNMP{
			Context:            ctx,
			Target:             cfg.Target,
			Port:               cfg.Port,
			Timeout:            time.Duration(cfg.Timeout),
			Retries:            cfg.Retries,
			MaxOids:            gosnmp.MaxOids,
			MaxRepetitions:     10,
			ExponentialTimeout: true,
		}

		if client.Port == 0 {
			client.Port = 161
		}

		if client.Timeout == 0 {
			client.Timeout = 5 * time.Second
		}

		if err := configureVersion(client, cfg); err != nil {
			return nil, err
		}

		return goSNMPClient{GoSNMP: client}, nil
	}, nil
}

func configureVersion(client *gosnmp.GoSNMP, cfg Config) error {
	switch strings.ToLower(cfg.Version) {
	case "v1", "1":
		client.Version = gosnmp.Version1
		client.Community = cfg.Community
	case "", "v2c", "2c":
		client.Version = gosnmp.Version2c
		client.Community = cfg.Community
	case "v3", "3":
		client.Version = gosnmp.Version3
		client.SecurityModel = gosnmp.UserSecurityModel
		client.MsgFlags = gosnmp.NoAuthNoPriv

		usm := &gosnmp.UsmSecurityParameters{UserName: cfg.Username}

		if configureAuth(usm, cfg) {
			client.MsgFlags = gosnmp.AuthNoPriv

			if configurePrivacy(usm, cfg) {
				client.MsgFlags = gosnmp.AuthPriv
			}
		}

		client.SecurityParameters = usm
	default:
		return fmt.Errorf("%w: %s", errUnsupportedVersion, cfg.Version)
	}

	return nil
}

func configureAuth(usm *gosnmp.UsmSecurityParameters, cfg Config) bool {
	protocols := map[string]gosnmp.SnmpV3AuthProtocol{
		"MD5":    gosnmp.MD5,
		"SHA":    gosnmp.SHA,
		"SHA224": gosnmp.SHA224,
		"SHA256": gosnmp.SHA256,
		"SHA384": gosnmp.SHA384,
		"SHA512": gosnmp.SHA512,
	}

	p, ok := protocols[strings.ToUpper(cfg.AuthProtocol)]
	if !ok {
		return false
	}

	usm.AuthenticationProtocol = p
	usm.AuthenticationPassphrase = cfg.AuthPassword

	return true
}

func configurePrivacy(usm *gosnmp.UsmSecurityParameters, cfg Config) bool {
	protocols := map[string]gosnmp.SnmpV3PrivProtocol{
		"DES":    gosnmp.DES,
		"AES":    gosnmp.AES,
		"AES192": gosnmp.AES192,
		"AES256": gosnmp.AES256,
	}

	p, ok := protocols[strings.ToUpper(cfg.PrivacyProtocol)]
	if !ok {
		return false
	}

	usm.PrivacyProtocol = p
	usm.PrivacyPassphrase = cfg.PrivacyPassword

	return true
}

// Table is a DataSource over one SNMP table; Columns maps column names to column OIDs.
type Table struct {
	dial    Dialer
	columns map[string]string
}

// NewTable builds a table source.
func NewTable(dial Dialer, columns map[string]string) *Table {
	return &Table{dial: dial, columns: columns}
}

func (t *Table) Query(ctx context.Context, projection []string) (scan.Cursor, error) {
	client, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	rows := make(map[string]scan.MapRow)

	for _, col := range projection {
		oid, ok := t.columns[col]
		if !ok {
			continue
		}

		prefix := "." + strings.Trim(oid, ".") + "."

		err := client.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
			name := pdu.Name
			if !strings.HasPrefix(name, ".") {
				name = "." + name
			}

			index, found := strings.CutPrefix(name, prefix)
			if !found || index == "" {
				return nil
			}

			row, ok := rows[index]
			if !ok {
				row = scan.MapRow{ColIndex: index}
				rows[index] = row
			}

			if v := pduValue(pdu); v != nil {
				row[col] = v
			}

			return nil
		})
		if err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("failed to walk %s (%s): %w", col, oid, err)
		}
	}

	indexes := make([]string, 0, len(rows))
	for idx := range rows {
		indexes = append(indexes, idx)
	}

	sort.Slice(indexes, func(i, j int) bool { return lessOID(indexes[i], indexes[j]) })

	ordered := make([]scan.Row, len(indexes))
	for i, idx := range indexes {
		ordered[i] = rows[idx]
	}

	return &tableCursor{client: client, rows: ordered, pos: -1}, nil
}

type tableCursor struct {
	client Client
	rows   []scan.Row
	pos    int
}

func (c *tableCursor) Next() bool {
	if c.pos+1 >= len(c.rows) {
		return false
	}

	c.pos++

	return true
}

func (c *tableCursor) Row() scan.Row { return c.rows[c.pos] }
func (*tableCursor) Err() error      { return nil }

func (c *tableCursor) Close() error {
	c.rows = nil
	return c.client.Close()
}

func pduValue(pdu gosnmp.SnmpPDU) interface{} {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return nil
	case gosnmp.OctetString:
		b, ok := pdu.Value.([]byte)
		if !ok {
			return pdu.Value
		}

		if utf8.Valid(b) && printable(b) {
			return string(b)
		}

		return formatHex(b)
	case gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Counter64, gosnmp.Uinteger32:
		return gosnmp.ToBigInt(pdu.Value).Int64()
	default:
		return pdu.Value
	}
}

func printable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}

	return true
}

func formatHex(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02x", c)
	}

	return strings.Join(parts, ":")
}

// lessOID orders dotted indexes numerically component by component.
func lessOID(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")

	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}

		an, errA := strconv.Atoi(as[i])
		bn, errB := strconv.Atoi(bs[i])

		if errA != nil || errB != nil {
			return as[i] < bs[i]
		}

		return an < bn
	}

	return len(as) < len(bs)
}
