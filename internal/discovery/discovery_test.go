package discovery

import (
	"errors"
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortFromAddr(t *testing.T) {
	tests := []struct {
		addr    string
		want    int
		wantErr bool
	}{
		{"127.0.0.1:8080", 8080, false},
		{":9000", 9000, false},
		{"[::1]:443", 443, false},
		{"localhost", 0, true},
		{"host:http", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, err := PortFromAddr(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_DefaultInstance(t *testing.T) {
	a := New("", 8080, "1.0")
	assert.Contains(t, a.Instance(), "-gestpipe")

	a = New("desk", 8080, "1.0")
	assert.Equal(t, "desk", a.Instance())
}

func TestAdvertiser_StartStop(t *testing.T) {
	a := New("desk", 8080, "1.2")
	calls := 0
	var gotService string
	var gotText []string
	a.register = func(instance, service, domain string, port int, text []string, _ []net.Interface) (*zeroconf.Server, error) {
		calls++
		gotService = service
		gotText = text
		assert.Equal(t, "desk", instance)
		assert.Equal(t, ServiceDomain, domain)
		assert.Equal(t, 8080, port)
		return nil, nil
	}

	require.NoError(t, a.Start())
	require.NoError(t, a.Start())
	assert.Equal(t, 1, calls)
	assert.True(t, a.Running())
	assert.Equal(t, ServiceType, gotService)
	assert.Contains(t, gotText, "version=1.2")

	a.Stop()
	assert.False(t, a.Running())
	a.Stop()
}

func TestAdvertiser_RegisterError(t *testing.T) {
	a := New("desk", 8080, "1.0")
	a.register = func(string, string, string, int, []string, []net.Interface) (*zeroconf.Server, error) {
		return nil, errors.New("no multicast interface")
	}

	err := a.Start()
	assert.ErrorContains(t, err, "no multicast interface")
	assert.False(t, a.Running())
}
