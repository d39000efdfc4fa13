package devserver

import (
	"fmt"
	"strings"
)

// clientScript is the live-reload client injected into HTML responses in
// development mode. It subscribes to the broadcast channel and reacts to
// the LOG and RELOAD event types.
const clientScript = `
<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + location.hostname + ':%CHANNEL_PORT%/socket');

        ws.onopen = function() {
            console.log('[relight] Live reload connected');
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'LOG':
                    console.log(msg.message);
                    break;

                case 'RELOAD':
                    console.log('[relight] Reloading...');
                    location.reload();
                    break;
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>
`

// ClientScript returns the live-reload client script bound to the given
// broadcast channel port.
func ClientScript(channelPort int) string {
	return strings.ReplaceAll(clientScript, "%CHANNEL_PORT%", fmt.Sprintf("%d", channelPort))
}

// injectScript inserts the client script before </body>, falling back to
// </html> and finally appending.
func injectScript(html, script string) string {
	if idx := strings.LastIndex(html, "</body>"); idx != -1 {
		return html[:idx] + script + html[idx:]
	}
	if idx := strings.LastIndex(html, "</html>"); idx != -1 {
		return html[:idx] + script + html[idx:]
	}
	return html + script
}
