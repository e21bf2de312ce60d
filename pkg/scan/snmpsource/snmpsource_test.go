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

package snmpsource

import (
	"context"
	"errors"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/fieldprobe/pkg/scan"
)

const (
	oidIfDescr  = ".1.3.6.1.2.1.2.2.1.2"
	oidIfInOcts = ".1.3.6.1.2.1.2.2.1.10"
)

type fakeClient struct {
	pdus      map[string][]gosnmp.SnmpPDU
	walkErr   error
	connected bool
	closes    int
}

func (c *fakeClient) Connect() error {
	c.connected = true
	return nil
}

func (c *fakeClient) BulkWalk(root string, fn gosnmp.WalkFunc) error {
	if c.walkErr != nil {
		return c.walkErr
	}

	for _, pdu := range c.pdus[root] {
		if err := fn(pdu); err != nil {
			return err
		}
	}

	return nil
}

func (c *fakeClient) Close() error {
	c.closes++
	return nil
}

func newFake() *fakeClient {
	return &fakeClient{pdus: map[string][]gosnmp.SnmpPDU{
		oidIfDescr: {
			{Name: oidIfDescr + ".10", Type: gosnmp.OctetString, Value: []byte("eth1")},
			{Name: oidIfDescr + ".2", Type: gosnmp.OctetString, Value: []byte("eth0")},
		},
		oidIfInOcts: {
			{Name: oidIfInOcts + ".2", Type: gosnmp.Counter32, Value: uint(1500)},
			{Name: oidIfInOcts + ".10", Type: gosnmp.NoSuchInstance},
		},
	}}
}

func TestTableJoinsColumnsByIndex(t *testing.T) {
	client := newFake()
	table := NewTable(func(context.Context) (Client, error) { return client, nil }, map[string]string{
		"descr":     oidIfDescr,
		"in_octets": oidIfInOcts,
	})

	s := scan.New(table, []scan.Cell{
		scan.StringCell(ColIndex),
		scan.StringCell("descr"),
		scan.LongCell("in_octets"),
	})

	var got []map[string]interface{}

	for rec, err := range s.Records(context.Background()) {
		require.NoError(t, err)

		row := map[string]interface{}{}
		for _, f := range rec.Fields() {
			row[f.Name] = f.Value
		}

		got = append(got, row)
	}

	require.Len(t, got, 2)
	assert.Equal(t, map[string]interface{}{"index": "2", "descr": "eth0", "in_octets": int64(1500)}, got[0])
	assert.Equal(t, map[string]interface{}{"index": "10", "descr": "eth1"}, got[1])
	assert.True(t, client.connected)
	assert.Equal(t, 1, client.closes)
}

func TestTableWalkErrorClosesClient(t *testing.T) {
	client := newFake()
	client.walkErr = errors.New("timeout")

	table := NewTable(func(context.Context) (Client, error) { return client, nil }, map[string]string{"descr": oidIfDescr})

	_, err := table.Query(context.Background(), []string{"descr"})
	require.Error(t, err)
	assert.Equal(t, 1, client.closes)
}

func TestNewDialer(t *testing.T) {
	_, err := NewDialer(Config{})
	require.ErrorIs(t, err, errTargetRequired)

	_, err = NewDialer(Config{Target: "192.0.2.1", Version: "v4"})
	require.ErrorIs(t, err, errUnsupportedVersion)

	dial, err := NewDialer(Config{Target: "192.0.2.1", Version: "v3", Username: "u", AuthProtocol: "sha", AuthPassword: "p"})
	require.NoError(t, err)

	client, err := dial(context.Background())
	require.NoError(t, err)

	g := client.(goSNMPClient).GoSNMP
	assert.Equal(t, uint16(161), g.Port)
	assert.Equal(t, gosnmp.AuthNoPriv, g.MsgFlags)
	require.NoError(t, client.Close())
}

func TestPDUValueAndOrdering(t *testing.T) {
	assert.Equal(t, "00:1a:2b", pduValue(gosnmp.SnmpPDU{Type: gosnmp.OctetString, Value: []byte{0x00, 0x1a, 0x2b}}))
	assert.Nil(t, pduValue(gosnmp.SnmpPDU{Type: gosnmp.EndOfMibView}))
	assert.Equal(t, 7, pduValue(gosnmp.SnmpPDU{Type: gosnmp.Integer, Value: 7}))

	assert.True(t, lessOID("2", "10"))
	assert.True(t, lessOID("1.2", "1.10"))
	assert.False(t, lessOID("3", "3"))
}
