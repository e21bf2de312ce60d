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

package probes

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probe"
	"github.com/carverauto/fieldprobe/pkg/scan"
	"github.com/carverauto/fieldprobe/pkg/scan/snmpsource"
)

var errNoOID = errors.New("snmp column needs an oid")

// SNMPColumn maps one table column OID to one record field.
type SNMPColumn struct {
	Field string `json:"field"`
	OID   string `json:"oid"`
	Kind  string `json:"kind,omitempty"`
}

// SNMPDetails configures an SNMP table probe. Without columns the probe walks ifTable.
type SNMPDetails struct {
	snmpsource.Config
	Columns []SNMPColumn `json:"columns,omitempty"`
}

// IF-MIB ifTable columns.
var ifTableColumns = []SNMPColumn{
	{Field: "descr", OID: ".1.3.6.1.2.1.2.2.1.2", Kind: "string"},
	{Field: "type", OID: ".1.3.6.1.2.1.2.2.1.3", Kind: "int"},
	{Field: "mtu", OID: ".1.3.6.1.2.1.2.2.1.4", Kind: "int"},
	{Field: "speed", OID: ".1.3.6.1.2.1.2.2.1.5", Kind: "long"},
	{Field: "oper_status", OID: ".1.3.6.1.2.1.2.2.1.8", Kind: "int"},
	{Field: "in_octets", OID: ".1.3.6.1.2.1.2.2.1.10", Kind: "long"},
	{Field: "out_octets", OID: ".1.3.6.1.2.1.2.2.1.16", Kind: "long"},
}

// snmpDialer is replaceable in tests.
var snmpDialer = snmpsource.NewDialer

func snmpCells(cols []SNMPColumn) ([]scan.Cell, map[string]string, error) {
	cells := []scan.Cell{scan.StringCell(snmpsource.ColIndex)}
	oids := make(map[string]string, len(cols))

	for _, col := range cols {
		if col.Field == "" {
			return nil, nil, errNoField
		}

		if col.OID == "" {
			return nil, nil, fmt.Errorf("field %s: %w", col.Field, errNoOID)
		}

		kind := scan.KindAny

		if col.Kind != "" {
			var err error

			if kind, err = scan.ParseKind(col.Kind); err != nil {
				return nil, nil, fmt.Errorf("field %s: %w", col.Field, err)
			}
		}

		cells = append(cells, scan.Cell{Field: col.Field, Kind: kind})
		oids[col.Field] = col.OID
	}

	return cells, oids, nil
}

func newSNMPProbe(_ context.Context, spec Spec, _ Deps) (probe.Hooks, error) {
	var details SNMPDetails
	if err := spec.decodeDetails(&details); err != nil {
		return nil, err
	}

	cols := details.Columns
	if len(cols) == 0 {
		cols = ifTableColumns
	}

	cells, oids, err := snmpCells(cols)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidDetails, err)
	}

	dial, err := snmpDialer(details.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidDetails, err)
	}

	table := snmpsource.NewTable(dial, oids)

	return probe.NewScanProbe(probe.ScanConfig{
		ID:       spec.idOr("snmp.interfaces"),
		DataName: spec.dataNameOr("interfaces"),
		Mode:     scan.Batch,
		Source: func(context.Context, models.Params) (scan.DataSource, error) {
			return table, nil
		},
		Cells: func(models.Params) []scan.Cell { return cells },
	}), nil
}
